package driver

import (
	"context"
	"fmt"
	"github.com/aleph-zero/canarystack/stack"
	"github.com/aleph-zero/canarystack/telemetry"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"log/slog"
	"os"
	"time"
)

const (
	serviceName    = "canarystack"
	serviceVersion = "0.1.0"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

/* *** Driver Config *** */

type Config struct {
	StackConfig  *StackConfig
	StackOptions []stack.Option
	Count        int
	Pops        int
	Filename    string
	LogLevel    slog.Level
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{StackConfig: NewStackConfig()}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithStackConfig(stackConfig *StackConfig) Option {
	return func(c *Config) {
		c.StackConfig = stackConfig
	}
}

// WithStackOptions passes extra options to the stack, after the ones Run installs.
func WithStackOptions(opts ...stack.Option) Option {
	return func(c *Config) {
		c.StackOptions = append(c.StackOptions, opts...)
	}
}

func WithCount(count int) Option {
	return func(c *Config) {
		c.Count = count
	}
}

func WithPops(pops int) Option {
	return func(c *Config) {
		c.Pops = pops
	}
}

// WithFilename pushes the values listed in the file instead of 0..count-1.
func WithFilename(filename string) Option {
	return func(c *Config) {
		c.Filename = filename
	}
}

func WithLogLevel(level slog.Level) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

/* *** Stack Config *** */

type StackConfig struct {
	InitialCapacity int
	GrowthDelta     int
	GrowthFactor    float64
	Mode            stack.GrowthMode
	ShrinkOnPop     bool
	Hysteresis      int
	CheckLevel      stack.CheckLevel
	DumpPath        string
}

type StackOption func(*StackConfig)

func NewStackConfig(options ...StackOption) *StackConfig {
	cfg := &StackConfig{
		InitialCapacity: 20,
		GrowthDelta:     20,
		GrowthFactor:    2,
		Mode:            stack.Additive,
		Hysteresis:      stack.DefaultHysteresis,
		CheckLevel:      stack.CheckFull,
		DumpPath:        stack.DefaultDumpPath,
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithInitialCapacity(capacity int) StackOption {
	return func(c *StackConfig) {
		c.InitialCapacity = capacity
	}
}

func WithGrowthDelta(delta int) StackOption {
	return func(c *StackConfig) {
		c.GrowthDelta = delta
	}
}

func WithGrowthFactor(factor float64) StackOption {
	return func(c *StackConfig) {
		c.GrowthFactor = factor
	}
}

func WithMode(mode stack.GrowthMode) StackOption {
	return func(c *StackConfig) {
		c.Mode = mode
	}
}

func WithShrinkOnPop(shrink bool) StackOption {
	return func(c *StackConfig) {
		c.ShrinkOnPop = shrink
	}
}

func WithHysteresis(slots int) StackOption {
	return func(c *StackConfig) {
		c.Hysteresis = slots
	}
}

func WithCheckLevel(level stack.CheckLevel) StackOption {
	return func(c *StackConfig) {
		c.CheckLevel = level
	}
}

func WithDumpPath(path string) StackOption {
	return func(c *StackConfig) {
		c.DumpPath = path
	}
}

// New constructs a stack from the config. Extra options are applied last.
func (c *StackConfig) New(opts ...stack.Option) *stack.Stack {
	options := []stack.Option{
		stack.WithShrinkOnPop(c.ShrinkOnPop),
		stack.WithHysteresis(c.Hysteresis),
		stack.WithCheckLevel(c.CheckLevel),
		stack.WithDumpPath(c.DumpPath),
	}
	return stack.New(c.InitialCapacity, c.GrowthDelta, c.GrowthFactor, c.Mode, append(options, opts...)...)
}

/* *** Driver *** */

type Report struct {
	Stack    uuid.UUID
	Pushed   int
	Popped   int
	Size     int
	Capacity int
	Grows    int
	Shrinks  int
	Verdict  stack.ErrorKind
	Mode     stack.GrowthMode
	Duration time.Duration
}

func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stack", r.Stack.String()),
		slog.String("mode", r.Mode.String()),
		slog.Int("pushed", r.Pushed),
		slog.Int("popped", r.Popped),
		slog.Int("size", r.Size),
		slog.Int("capacity", r.Capacity),
		slog.Int("grows", r.Grows),
		slog.Int("shrinks", r.Shrinks),
		slog.String("verdict", r.Verdict.String()),
		slog.Duration("duration", r.Duration))
}

// Bootstrap runs the scenario once and exits non-zero on failure. A corrupted stack panics
// out of Run and takes the process down after its dump has been written.
func Bootstrap(config *Config) {
	ctx := context.Background()

	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         config.LogLevel,
		MessageFieldName: "msg",
		JSON:             true,
		Concise:          true,
	})

	shutdown, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		logger.ErrorContext(ctx, "Error initializing telemetry", "error", err)
		shutdown = func() {}
	}
	defer shutdown()

	observer, err := telemetry.NewObserver(otel.GetMeterProvider())
	if err != nil {
		logger.ErrorContext(ctx, "Error creating stack observer", "error", err)
		os.Exit(1)
	}

	report, err := Run(ctx, config, logger.Logger, observer)
	if err != nil {
		logger.ErrorContext(ctx, "Run failed", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Run complete", "report", report)
}

// Run drives one stack through its lifecycle: construct, push, pop, verify, dump, destroy.
func Run(ctx context.Context, config *Config, logger *slog.Logger, observer stack.Observer) (*Report, error) {
	start := time.Now()

	values, err := source(config)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "driver.Run", trace.WithAttributes(
		attribute.String("stack.mode", config.StackConfig.Mode.String()),
		attribute.Int("stack.initial_capacity", config.StackConfig.InitialCapacity),
		attribute.Int("driver.values", len(values)),
		attribute.Int("driver.pops", config.Pops)))
	defer span.End()

	report := &Report{Mode: config.StackConfig.Mode}
	counting := stack.ObserverFunc(func(e stack.Event) {
		switch e.Type {
		case stack.EventGrow:
			report.Grows++
		case stack.EventShrink:
			report.Shrinks++
		}
		if observer != nil {
			observer.Observe(e)
		}
	})

	options := append([]stack.Option{stack.WithLogger(logger), stack.WithObserver(counting)}, config.StackOptions...)
	s := config.StackConfig.New(options...)
	report.Stack = s.ID()
	logger.InfoContext(ctx, "Constructed stack", "stack", s.ID(), "capacity", s.Capacity(), "mode", s.Mode())

	for _, v := range values {
		s.Push(v)
		report.Pushed++
	}
	span.AddEvent("driver.pushed", trace.WithAttributes(attribute.Int("count", report.Pushed)))

	for i := 0; i < config.Pops && s.Size() > 0; i++ {
		s.Pop()
		report.Popped++
	}

	report.Verdict = s.Verify()
	report.Size = s.Size()
	report.Capacity = s.Capacity()
	telemetry.SetAttributes(span,
		attribute.String("stack.verdict", report.Verdict.String()),
		attribute.Int("stack.size", report.Size),
		attribute.Int("stack.capacity", report.Capacity))

	if err := s.Dump(); err != nil {
		logger.ErrorContext(ctx, "Error writing dump", "stack", s.ID(), "error", err)
		return nil, err
	}
	report.Duration = time.Since(start)
	if report.Verdict != stack.OK {
		return report, fmt.Errorf("stack %s failed verification: %w", s.ID(), s.VerifyError())
	}

	s.Destroy()
	report.Duration = time.Since(start)
	logger.InfoContext(ctx, "Destroyed stack", "stack", report.Stack, "grows", report.Grows, "shrinks", report.Shrinks)
	return report, nil
}
