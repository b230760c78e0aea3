package stack

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestStack_WriteDump(t *testing.T) {
	s, _ := setupStack(t, 3, 3, 0, Additive)
	s.Push(1)
	s.Push(2)

	var buf bytes.Buffer
	require.NoError(t, s.WriteDump(&buf))

	expected := fmt.Sprintf(`dynamic_stack (OK) [%s] {
	LEFT  STRUCT GUARD = BADBEDAA (must be BADBEDAA)
	size               = 2
	capacity           = 3
	mode               = ADDITIVE
	delta              = 3
	factor             = 0.000000
	checksum           = %016X (must be %016X)
	RIGHT STRUCT GUARD = ABACADAF (must be ABACADAF)
	elements [3] {
		LEFT  BOUNDARY GUARD = DEADBEEF (must be DEADBEEF)
	   *[0] = 1.000000
	   *[1] = 2.000000
		[2] = NaN (POISON)
		RIGHT BOUNDARY GUARD = ABCDEABC (must be ABCDEABC)
	}
}
`, s.ID(), s.Checksum(), s.Checksum())

	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestStack_Snapshot(t *testing.T) {
	s, _ := setupStack(t, 2, 0, 2, Multiplicative)
	s.Push(10)
	s.Push(20)
	s.Push(30)

	low, high := BoundaryGuardLow, BoundaryGuardHigh
	expected := Snapshot{
		ID:                s.ID(),
		Verdict:           OK,
		StructGuardLow:    StructGuardLow,
		StructGuardHigh:   StructGuardHigh,
		Size:              3,
		Capacity:          4,
		Mode:              Multiplicative,
		Factor:            2,
		BoundaryGuardLow:  &low,
		BoundaryGuardHigh: &high,
		Slots: []Slot{
			{Index: 0, Value: 10, Live: true},
			{Index: 1, Value: 20, Live: true},
			{Index: 2, Value: 30, Live: true},
			{Index: 3, Value: math.NaN(), Poisoned: true},
		},
	}

	snap := s.Snapshot()
	require.Equal(t, snap.Checksum, snap.ExpectedChecksum)
	if diff := cmp.Diff(expected, snap, cmpopts.EquateNaNs(),
		cmpopts.IgnoreFields(Snapshot{}, "Checksum", "ExpectedChecksum")); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	for _, slot := range snap.Slots {
		require.True(t, slot.Consistent(), "slot %d", slot.Index)
	}
}

func TestStack_DumpCorrupted(t *testing.T) {
	tests := []struct {
		name     string
		corrupt  func(s *Stack)
		verdict  string
		contains []string
	}{
		{
			name:     "capacity beyond allocation",
			corrupt:  func(s *Stack) { s.capacity = 100 },
			verdict:  "INVALID_CAPACITY",
			contains: []string{"capacity           = 100", "RIGHT BOUNDARY GUARD = <missing>", "elements [4] {"},
		},
		{
			name:     "capacity wrapped past the allocation",
			corrupt:  func(s *Stack) { s.capacity = math.MaxInt },
			verdict:  "INVALID_CAPACITY",
			contains: []string{"elements [4] {", "RIGHT BOUNDARY GUARD = <missing>"},
		},
		{
			name:     "negative capacity",
			corrupt:  func(s *Stack) { s.capacity = -3 },
			verdict:  "OVERFLOW",
			contains: []string{"elements [0] {", "RIGHT BOUNDARY GUARD = <missing>"},
		},
		{
			name:     "struct guard",
			corrupt:  func(s *Stack) { s.structGuardHigh = 0x1234 },
			verdict:  "SENTINEL_CORRUPTION",
			contains: []string{"RIGHT STRUCT GUARD =     1234 (must be ABACADAF)"},
		},
		{
			name:     "boundary guard",
			corrupt:  func(s *Stack) { s.alloc[0] = math.Float64frombits(0xFEEDFACE) },
			verdict:  "SENTINEL_CORRUPTION",
			contains: []string{"LEFT  BOUNDARY GUARD = FEEDFACE (must be DEADBEEF)"},
		},
		{
			name: "live slot poisoned",
			corrupt: func(s *Stack) {
				s.alloc[guardWords+1] = Poison
				s.checksum = s.digest()
			},
			verdict:  "POISON_INCONSISTENCY",
			contains: []string{"*[1] = NaN (CORRUPT)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := corruptibleStack(t)
			tt.corrupt(s)

			var buf bytes.Buffer
			require.NoError(t, s.WriteDump(&buf))
			out := buf.String()

			require.True(t, strings.HasPrefix(out, "dynamic_stack ("+tt.verdict+")"), out)
			for _, c := range tt.contains {
				require.Contains(t, out, c)
			}
		})
	}
}

func TestStack_DumpFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultDumpPath)
	s := New(2, 2, 0, Additive, WithDumpPath(path))
	s.Push(4)

	require.NoError(t, s.Dump())
	s.Push(5)
	require.NoError(t, s.Dump())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "dynamic_stack"), "dump file must be truncated")
	require.Contains(t, string(data), "*[1] = 5.000000")
}

func TestStack_DumpFileError(t *testing.T) {
	var failure *Error
	path := filepath.Join(t.TempDir(), "missing", DefaultDumpPath)
	s := New(1, 1, 0, Additive, WithDumpPath(path), WithFatalHandler(func(err *Error) {
		failure = err
	}))

	s.Pop()

	require.NotNil(t, failure)
	require.Equal(t, EmptyStack, failure.Kind)
	require.Error(t, failure.Err)
	require.ErrorIs(t, failure, os.ErrNotExist)
}
