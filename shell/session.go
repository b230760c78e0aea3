package shell

import (
	"context"
	"fmt"
	"github.com/aleph-zero/canarystack/driver"
	"github.com/aleph-zero/canarystack/stack"
	"github.com/aleph-zero/canarystack/telemetry"
	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	fatalColor = color.New(color.FgRed, color.Bold)
)

const help = `commands:
  push <value>...   push one or more values
  pop               remove the top value
  top               print the top value
  clear             remove every value
  size              print size and capacity
  verify            run the integrity checks
  dump              write the diagnostic dump to the dump file
  show              print the diagnostic dump
  reset             destroy the stack and start a new one
  exit              leave the shell
`

// Session drives one stack from text commands. Misuse of the stack is reported and the
// session goes on; corruption ends it.
type Session struct {
	config    *driver.StackConfig
	stack     *stack.Stack
	out       io.Writer
	logger    *slog.Logger
	observer  stack.Observer
	corrupted bool
}

// NewSession constructs the first stack. A policy the stack rejects is returned as an error.
func NewSession(config *driver.StackConfig, out io.Writer, logger *slog.Logger, observer stack.Observer) (session *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackErr, ok := r.(*stack.Error)
			if !ok {
				panic(r)
			}
			session, err = nil, stackErr
		}
	}()

	s := &Session{
		config:   config,
		out:      out,
		logger:   logger,
		observer: observer,
	}
	s.stack = s.newStack()
	return s, nil
}

func (s *Session) newStack() *stack.Stack {
	opts := []stack.Option{stack.WithLogger(s.logger)}
	if s.observer != nil {
		opts = append(opts, stack.WithObserver(s.observer))
	}
	return s.config.New(opts...)
}

// Execute runs one command line and reports whether the session is over.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	_, span := telemetry.StartSpan(ctx, "shell."+cmd, trace.WithAttributes(
		attribute.String("stack.id", s.stack.ID().String()),
		attribute.Int("shell.args", len(args))))
	defer span.End()

	var quit bool
	s.protect(span, func() {
		quit = s.dispatch(cmd, args)
	})
	return quit || s.corrupted
}

// protect recovers fatal stack errors raised by fn.
func (s *Session) protect(span trace.Span, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err, ok := r.(*stack.Error)
		if !ok {
			panic(r)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if err.Kind.Corruption() {
			s.corrupted = true
			fatalColor.Fprintf(s.out, "FATAL %s, dump written to %s\n", err, s.config.DumpPath)
			return
		}
		warnColor.Fprintf(s.out, "error: %s\n", err)
	}()
	fn()
}

func (s *Session) dispatch(cmd string, args []string) bool {
	switch cmd {
	case "push":
		if len(args) == 0 {
			warnColor.Fprintln(s.out, "usage: push <value>...")
			return false
		}
		values := make([]float64, 0, len(args))
		for _, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				warnColor.Fprintf(s.out, "error: %q is not a number\n", arg)
				return false
			}
			values = append(values, v)
		}
		for _, v := range values {
			s.stack.Push(v)
		}
	case "pop":
		s.stack.Pop()
	case "top":
		fmt.Fprintln(s.out, strconv.FormatFloat(s.stack.Top(), 'g', -1, 64))
	case "clear":
		s.stack.Clear()
	case "size":
		fmt.Fprintf(s.out, "size=%d capacity=%d mode=%s\n", s.stack.Size(), s.stack.Capacity(), s.stack.Mode())
	case "verify":
		s.verify()
	case "dump":
		if err := s.stack.Dump(); err != nil {
			warnColor.Fprintf(s.out, "error: %s\n", err)
			return false
		}
		fmt.Fprintf(s.out, "dump written to %s\n", s.config.DumpPath)
	case "show":
		if err := s.stack.WriteDump(s.out); err != nil {
			warnColor.Fprintf(s.out, "error: %s\n", err)
		}
	case "reset":
		s.stack.Destroy()
		s.stack = s.newStack()
		fmt.Fprintf(s.out, "stack %s ready\n", s.stack.ID())
	case "help":
		fmt.Fprint(s.out, help)
	case "exit", "quit":
		s.stack.Destroy()
		return true
	default:
		warnColor.Fprintf(s.out, "unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (s *Session) verify() {
	kind := s.stack.Verify()
	if kind == stack.OK {
		okColor.Fprintln(s.out, kind)
		return
	}
	fatalColor.Fprintln(s.out, kind)
}
