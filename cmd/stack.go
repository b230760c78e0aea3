package cmd

import (
    "fmt"
    "github.com/aleph-zero/canarystack/driver"
    "github.com/aleph-zero/canarystack/stack"
    "github.com/spf13/viper"
    "log/slog"
)

const (
    initialCapacity = 20
    growthDelta     = 20
    growthFactor    = 2.0
    growthMode      = "additive"
    checkLevel      = "full"
)

var stackFlags = []string{
    "stack.initial-capacity",
    "stack.growth-delta",
    "stack.growth-factor",
    "stack.mode",
    "stack.shrink",
    "stack.hysteresis",
    "stack.check",
    "stack.dump-path",
    "log.level",
}

func init() {
    flags := rootCmd.PersistentFlags()
    flags.Int("stack.initial-capacity", initialCapacity, "Initial number of element slots")
    flags.Int("stack.growth-delta", growthDelta, "Slots added per growth step in additive mode")
    flags.Float64("stack.growth-factor", growthFactor, "Capacity multiplier in multiplicative mode")
    flags.String("stack.mode", growthMode, "Growth mode: additive or multiplicative")
    flags.Bool("stack.shrink", false, "Release capacity when the stack becomes sparse")
    flags.Int("stack.hysteresis", stack.DefaultHysteresis, "Spare slots kept before shrinking")
    flags.String("stack.check", checkLevel, "Integrity checks around operations: none, structural or full")
    flags.String("stack.dump-path", stack.DefaultDumpPath, "File the diagnostic dump is written to")
    flags.String("log.level", "info", "Log level: debug, info, warn or error")

    for _, name := range stackFlags {
        viper.BindPFlag(name, flags.Lookup(name))
    }
}

// stackConfig builds the stack configuration from flags, environment and config file.
func stackConfig() (*driver.StackConfig, error) {
    mode, err := stack.ParseGrowthMode(viper.GetString("stack.mode"))
    if err != nil {
        return nil, err
    }
    check, err := stack.ParseCheckLevel(viper.GetString("stack.check"))
    if err != nil {
        return nil, err
    }

    return driver.NewStackConfig(
        driver.WithInitialCapacity(viper.GetInt("stack.initial-capacity")),
        driver.WithGrowthDelta(viper.GetInt("stack.growth-delta")),
        driver.WithGrowthFactor(viper.GetFloat64("stack.growth-factor")),
        driver.WithMode(mode),
        driver.WithShrinkOnPop(viper.GetBool("stack.shrink")),
        driver.WithHysteresis(viper.GetInt("stack.hysteresis")),
        driver.WithCheckLevel(check),
        driver.WithDumpPath(viper.GetString("stack.dump-path"))), nil
}

func logLevel() (slog.Level, error) {
    var level slog.Level
    if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
        return level, fmt.Errorf("log.level: %w", err)
    }
    return level, nil
}
