package stack

import (
	"io"
	"log/slog"
	"math"
)

const (
	DefaultHysteresis  = 30
	DefaultDumpPath    = "stackdump.txt"
	DefaultMaxCapacity = math.MaxInt32
)

/* *** Stack Config *** */

// Config carries the policy knobs of a stack. The growth parameters themselves are
// arguments of New.
type Config struct {
	ShrinkOnPop  bool
	Hysteresis   int
	MaxCapacity  int
	CheckLevel   CheckLevel
	DumpPath     string
	DumpWriter   io.Writer
	Logger       *slog.Logger
	Observer     Observer
	FatalHandler func(*Error)
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{
		Hysteresis:   DefaultHysteresis,
		MaxCapacity:  DefaultMaxCapacity,
		CheckLevel:   CheckFull,
		DumpPath:     DefaultDumpPath,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		FatalHandler: Panic,
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

// Panic is the default fatal handler.
func Panic(err *Error) {
	panic(err)
}

func WithShrinkOnPop(shrink bool) Option {
	return func(c *Config) {
		c.ShrinkOnPop = shrink
	}
}

func WithHysteresis(slots int) Option {
	return func(c *Config) {
		c.Hysteresis = slots
	}
}

// WithMaxCapacity bounds the allocation; growing past it is treated as an allocation failure.
func WithMaxCapacity(capacity int) Option {
	return func(c *Config) {
		c.MaxCapacity = capacity
	}
}

func WithCheckLevel(level CheckLevel) Option {
	return func(c *Config) {
		c.CheckLevel = level
	}
}

func WithDumpPath(path string) Option {
	return func(c *Config) {
		c.DumpPath = path
	}
}

// WithDumpWriter sends dumps to w instead of the dump file.
func WithDumpWriter(w io.Writer) Option {
	return func(c *Config) {
		c.DumpWriter = w
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Config) {
		c.Observer = observer
	}
}

// WithFatalHandler replaces the action taken after a fatal error has been logged and dumped.
// If the handler returns, the failing operation returns without touching the stack.
func WithFatalHandler(handler func(*Error)) Option {
	return func(c *Config) {
		if handler != nil {
			c.FatalHandler = handler
		}
	}
}
