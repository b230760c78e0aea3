package shell

import (
	"bytes"
	"context"
	"github.com/aleph-zero/canarystack/driver"
	"github.com/aleph-zero/canarystack/stack"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestSession_Commands(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []string
		size     int
		capacity int
	}{
		{
			name:     "push and top",
			lines:    []string{"push 1 2.5 -3", "top"},
			expected: []string{"-3\n"},
			size:     3,
			capacity: 4,
		},
		{
			name:     "push grows",
			lines:    []string{"push 1 2 3 4 5", "size"},
			expected: []string{"size=5 capacity=8 mode=ADDITIVE\n"},
			size:     5,
			capacity: 8,
		},
		{
			name:     "pop and clear",
			lines:    []string{"push 1 2 3", "pop", "top", "clear", "size"},
			expected: []string{"2\n", "size=0 capacity=4"},
			capacity: 4,
		},
		{
			name:     "bad number leaves stack untouched",
			lines:    []string{"push 1 x 2"},
			expected: []string{`error: "x" is not a number`},
			capacity: 4,
		},
		{
			name:     "push without values",
			lines:    []string{"push"},
			expected: []string{"usage: push <value>..."},
			capacity: 4,
		},
		{
			name:     "unknown command",
			lines:    []string{"frobnicate"},
			expected: []string{`unknown command "frobnicate"`},
			capacity: 4,
		},
		{
			name:     "verify",
			lines:    []string{"push 7", "VERIFY"},
			expected: []string{"OK\n"},
			size:     1,
			capacity: 4,
		},
		{
			name:     "show",
			lines:    []string{"push 7", "show"},
			expected: []string{"dynamic_stack (OK)", "*[0] = 7.000000", "[1] = NaN (POISON)"},
			size:     1,
			capacity: 4,
		},
		{
			name:     "help",
			lines:    []string{"help"},
			expected: []string{"push <value>...", "reset"},
			capacity: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, out, _ := setupSession(t)
			for _, line := range tt.lines {
				require.False(t, session.Execute(context.Background(), line), line)
			}
			for _, e := range tt.expected {
				require.Contains(t, out.String(), e)
			}
			require.Equal(t, tt.size, session.stack.Size())
			require.Equal(t, tt.capacity, session.stack.Capacity())
			require.False(t, session.corrupted)
		})
	}
}

func TestSession_MisuseContinues(t *testing.T) {
	session, out, _ := setupSession(t)

	require.False(t, session.Execute(context.Background(), "pop"))
	require.Contains(t, out.String(), "error: EMPTY_STACK")

	require.False(t, session.Execute(context.Background(), "push nan"))
	require.Contains(t, out.String(), "error: POISONED_VALUE")

	require.False(t, session.Execute(context.Background(), "push 1"))
	require.Equal(t, 1, session.stack.Size())
	require.Equal(t, stack.OK, session.stack.Verify())
	require.False(t, session.corrupted)
}

func TestSession_Dump(t *testing.T) {
	session, out, path := setupSession(t)

	require.False(t, session.Execute(context.Background(), "push 3 4"))
	require.False(t, session.Execute(context.Background(), "dump"))
	require.Contains(t, out.String(), "dump written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "dynamic_stack (OK)"))
	require.Contains(t, string(data), "*[1] = 4.000000")
}

func TestSession_Reset(t *testing.T) {
	session, out, _ := setupSession(t)
	require.False(t, session.Execute(context.Background(), "push 1 2"))
	previous := session.stack

	require.False(t, session.Execute(context.Background(), "reset"))

	require.True(t, previous.Destroyed())
	require.NotEqual(t, previous.ID(), session.stack.ID())
	require.Equal(t, 0, session.stack.Size())
	require.Contains(t, out.String(), "stack "+session.stack.ID().String()+" ready")
}

func TestSession_Exit(t *testing.T) {
	for _, cmd := range []string{"exit", "quit", "  Exit  "} {
		t.Run(cmd, func(t *testing.T) {
			session, _, _ := setupSession(t)
			require.True(t, session.Execute(context.Background(), cmd))
			require.True(t, session.stack.Destroyed())
			require.False(t, session.corrupted)
		})
	}
}

func TestSession_BlankLine(t *testing.T) {
	session, out, _ := setupSession(t)
	require.False(t, session.Execute(context.Background(), "   "))
	require.Empty(t, out.String())
}

func TestSession_CorruptionEndsSession(t *testing.T) {
	session, out, path := setupSession(t)
	span := trace.SpanFromContext(context.Background())

	session.protect(span, func() {
		panic(&stack.Error{Kind: stack.SentinelCorruption, Message: "SENTINEL_CORRUPTION: right boundary guard"})
	})

	require.True(t, session.corrupted)
	require.Contains(t, out.String(), "FATAL SENTINEL_CORRUPTION: right boundary guard, dump written to "+path)
	require.True(t, session.Execute(context.Background(), "size"), "a corrupted session must end")
}

func TestSession_ForeignPanic(t *testing.T) {
	session, _, _ := setupSession(t)
	span := trace.SpanFromContext(context.Background())

	require.PanicsWithValue(t, "boom", func() {
		session.protect(span, func() { panic("boom") })
	})
	require.False(t, session.corrupted)
}

func TestNewSession_InvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackdump.txt")
	cfg := driver.NewStackConfig(driver.WithGrowthDelta(0), driver.WithDumpPath(path))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	session, err := NewSession(cfg, io.Discard, logger, nil)

	require.Nil(t, session)
	require.ErrorIs(t, err, stack.Error{Kind: stack.InvalidCapacity})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "dynamic_stack (DESTROYED)"), string(data))
}

func setupSession(tb testing.TB) (*Session, *bytes.Buffer, string) {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "stackdump.txt")
	cfg := driver.NewStackConfig(
		driver.WithInitialCapacity(4),
		driver.WithGrowthDelta(4),
		driver.WithDumpPath(path))

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, err := NewSession(cfg, &out, logger, nil)
	require.NoError(tb, err)
	return session, &out, path
}
