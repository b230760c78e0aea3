package stack

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/uuid"
)

// Snapshot is the structured form of a dump.
type Snapshot struct {
	ID                uuid.UUID
	Verdict           ErrorKind
	StructGuardLow    uint64
	StructGuardHigh   uint64
	Size              int
	Capacity          int
	Mode              GrowthMode
	Delta             int
	Factor            float64
	Checksum          uint64
	ExpectedChecksum  uint64
	BoundaryGuardLow  *uint64
	BoundaryGuardHigh *uint64
	Slots             []Slot
}

// Slot is one element slot. Live slots lie below the size.
type Slot struct {
	Index    int
	Value    float64
	Live     bool
	Poisoned bool
}

// Consistent reports whether the slot agrees with the poison invariant.
func (s Slot) Consistent() bool {
	return s.Live != s.Poisoned
}

// Snapshot captures the stack without changing it. It tolerates corrupted bounds: only
// slots that exist in the allocation are reported.
func (s *Stack) Snapshot() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		Verdict:          s.Verify(),
		StructGuardLow:   s.structGuardLow,
		StructGuardHigh:  s.structGuardHigh,
		Size:             s.size,
		Capacity:         s.capacity,
		Mode:             s.mode,
		Delta:            s.delta,
		Factor:           s.factor,
		Checksum:         s.checksum,
		ExpectedChecksum: s.digest(),
	}

	if len(s.alloc) > 0 {
		low := math.Float64bits(s.alloc[0])
		snap.BoundaryGuardLow = &low
	}
	// capacity may hold any value here; index only what the allocation has
	avail := len(s.alloc) - 2*guardWords
	if s.capacity >= 0 && s.capacity <= avail {
		high := math.Float64bits(s.alloc[guardWords+s.capacity])
		snap.BoundaryGuardHigh = &high
	}

	slots := min(s.capacity, avail)
	for i := 0; i < slots; i++ {
		v := s.alloc[guardWords+i]
		snap.Slots = append(snap.Slots, Slot{Index: i, Value: v, Live: i < s.size, Poisoned: isPoison(v)})
	}
	return snap
}

// Dump writes the diagnostic report to the configured sink: the dump writer if one was
// given, otherwise the dump file, which is truncated first.
func (s *Stack) Dump() error {
	if s.config.DumpWriter != nil {
		return s.WriteDump(s.config.DumpWriter)
	}

	f, err := os.Create(s.config.DumpPath)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	if err := s.WriteDump(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing dump file: %w", err)
	}
	return nil
}

func (s *Stack) WriteDump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	s.Snapshot().render(bw)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}

func (snap Snapshot) render(w io.Writer) {
	fmt.Fprintf(w, "dynamic_stack (%s) [%s] {\n", snap.Verdict, snap.ID)
	fmt.Fprintf(w, "\tLEFT  STRUCT GUARD = %8X (must be %X)\n", snap.StructGuardLow, StructGuardLow)
	fmt.Fprintf(w, "\tsize               = %d\n", snap.Size)
	fmt.Fprintf(w, "\tcapacity           = %d\n", snap.Capacity)
	fmt.Fprintf(w, "\tmode               = %s\n", snap.Mode)
	fmt.Fprintf(w, "\tdelta              = %d\n", snap.Delta)
	fmt.Fprintf(w, "\tfactor             = %f\n", snap.Factor)
	fmt.Fprintf(w, "\tchecksum           = %016X (must be %016X)\n", snap.Checksum, snap.ExpectedChecksum)
	fmt.Fprintf(w, "\tRIGHT STRUCT GUARD = %8X (must be %X)\n", snap.StructGuardHigh, StructGuardHigh)

	fmt.Fprintf(w, "\telements [%d] {\n", len(snap.Slots))
	fmt.Fprintf(w, "\t\tLEFT  BOUNDARY GUARD = %s (must be %X)\n", guardWord(snap.BoundaryGuardLow), BoundaryGuardLow)
	for _, slot := range snap.Slots {
		var mark string
		if !slot.Consistent() {
			mark = " (CORRUPT)"
		}
		if slot.Live {
			fmt.Fprintf(w, "\t   *[%d] = %f%s\n", slot.Index, slot.Value, mark)
		} else {
			fmt.Fprintf(w, "\t\t[%d] = %f (POISON)%s\n", slot.Index, slot.Value, mark)
		}
	}
	fmt.Fprintf(w, "\t\tRIGHT BOUNDARY GUARD = %s (must be %X)\n", guardWord(snap.BoundaryGuardHigh), BoundaryGuardHigh)
	fmt.Fprint(w, "\t}\n}\n")
}

func guardWord(v *uint64) string {
	if v == nil {
		return "<missing>"
	}
	return fmt.Sprintf("%8X", *v)
}
