package shell

import (
	"context"
	"errors"
	"fmt"
	"github.com/aleph-zero/canarystack/driver"
	"github.com/aleph-zero/canarystack/telemetry"
	"github.com/chzyer/readline"
	"github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	serviceName       = "canarystack-shell"
	serviceVersion    = "0.1.0"
	readlineConfigDir = ".config/canarystack"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

type Config struct {
	StackConfig *driver.StackConfig
	LogLevel    slog.Level
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{
		StackConfig: driver.NewStackConfig(),
		LogLevel:    slog.LevelWarn,
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithStackConfig(stackConfig *driver.StackConfig) Option {
	return func(cfg *Config) {
		cfg.StackConfig = stackConfig
	}
}

func WithLogLevel(level slog.Level) Option {
	return func(cfg *Config) {
		cfg.LogLevel = level
	}
}

// Bootstrap runs an interactive session against one stack until exit, EOF or corruption.
func Bootstrap(config *Config) {
	ctx := context.Background()
	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         config.LogLevel,
		MessageFieldName: "msg",
		JSON:             false,
		Concise:          true,
	})

	rl, err := setupReadline()
	if err != nil {
		logger.Error("Error setting up readline config", "error", err)
		return
	}
	defer rl.Close()

	shutdown, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		logger.Error("Error initializing telemetry", "error", err)
		shutdown = func() {}
	}
	defer shutdown()

	observer, err := telemetry.NewObserver(otel.GetMeterProvider())
	if err != nil {
		logger.Error("Error creating stack observer", "error", err)
		return
	}

	session, err := NewSession(config.StackConfig, rl.Stdout(), logger.Logger, observer)
	if err != nil {
		fatalColor.Fprintf(rl.Stdout(), "FATAL %s, dump written to %s\n", err, config.StackConfig.DumpPath)
		rl.Close()
		shutdown()
		os.Exit(1)
	}
	fmt.Fprintf(rl.Stdout(), "stack %s ready, type 'help' for commands\n", session.stack.ID())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := session.Execute(ctx, line); quit {
			break
		}
	}

	if session.corrupted {
		os.Exit(1)
	}
}

func setupReadline() (rl *readline.Instance, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, readlineConfigDir)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}

	return readline.NewEx(&readline.Config{
		Prompt:            "\033[33mcanarystack> \033[0m ",
		HistoryFile:       filepath.Join(dir, "canarystack.history"),
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("push"),
	readline.PcItem("pop"),
	readline.PcItem("top"),
	readline.PcItem("clear"),
	readline.PcItem("size"),
	readline.PcItem("verify"),
	readline.PcItem("dump"),
	readline.PcItem("show"),
	readline.PcItem("reset"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)
