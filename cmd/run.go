package cmd

import (
    "fmt"
    "github.com/aleph-zero/canarystack/driver"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"
    "os"
)

var runCmd = &cobra.Command{
    Use:   "run",
    Short: "Run a stack through its lifecycle",
    Long:  "Construct a stack, push values, pop some, verify it, write its dump and destroy it",
    Run: func(cmd *cobra.Command, args []string) {
        stackConfig, err := stackConfig()
        if err != nil {
            fmt.Fprintln(os.Stderr, err)
            os.Exit(1)
        }
        level, err := logLevel()
        if err != nil {
            fmt.Fprintln(os.Stderr, err)
            os.Exit(1)
        }

        config := driver.NewConfig(
            driver.WithStackConfig(stackConfig),
            driver.WithCount(viper.GetInt("run.count")),
            driver.WithPops(viper.GetInt("run.pops")),
            driver.WithFilename(viper.GetString("run.file")),
            driver.WithLogLevel(level))
        driver.Bootstrap(config)
    },
}

const (
    runCount = 100
    runPops  = 0
)

func init() {
    rootCmd.AddCommand(runCmd)

    runCmd.Flags().Int("run.count", runCount, "Push the values 0..count-1")
    runCmd.Flags().Int("run.pops", runPops, "Number of values to pop after pushing")
    runCmd.Flags().String("run.file", "", "File of values to push instead of 0..count-1, one per line")

    viper.BindPFlag("run.count", runCmd.Flags().Lookup("run.count"))
    viper.BindPFlag("run.pops", runCmd.Flags().Lookup("run.pops"))
    viper.BindPFlag("run.file", runCmd.Flags().Lookup("run.file"))
}
