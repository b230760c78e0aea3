package stack

import (
	"math"

	"golang.org/x/exp/constraints"
)

// allocate returns a guarded allocation of capacity slots. The first live slots are copied
// from the element region of src, the remainder is poisoned.
func allocate(capacity, live int, src []float64) []float64 {
	alloc := make([]float64, capacity+2*guardWords)
	alloc[0] = math.Float64frombits(BoundaryGuardLow)
	if live > 0 {
		copy(alloc[guardWords:guardWords+live], src[guardWords:guardWords+live])
	}
	for i := guardWords + live; i < guardWords+capacity; i++ {
		alloc[i] = Poison
	}
	alloc[guardWords+capacity] = math.Float64frombits(BoundaryGuardHigh)
	return alloc
}

// growIfFull enlarges the allocation when no free slot remains. It reports false when the
// new capacity cannot be represented, after the failure has been handed to fail.
func (s *Stack) growIfFull() bool {
	if s.size < s.capacity {
		return true
	}

	next, ok := s.grownCapacity()
	if !ok {
		s.fail(newError(InvalidCapacity, "cannot grow capacity %d in %s mode (limit %d)", s.capacity, s.mode, s.maxCapacity))
		return false
	}

	old := s.capacity
	s.resize(next)
	s.logger.Debug("Grew stack", "size", s.size, "from", old, "to", next)
	s.notify(Event{Type: EventGrow, Size: s.size, OldCapacity: old, Capacity: next})
	return true
}

// shrinkIfSparse gives back one growth step once the live region, the hysteresis slack and
// another growth step all fit below the current capacity.
func (s *Stack) shrinkIfSparse() {
	var next int
	switch s.mode {
	case Additive:
		need, ok := addChecked(s.size, s.hysteresis)
		if ok {
			need, ok = addChecked(need, s.delta)
		}
		if !ok || need > s.capacity {
			return
		}
		next = s.capacity - s.delta
	case Multiplicative:
		need, ok := addChecked(s.size, s.hysteresis)
		if !ok || float64(need)*s.factor > float64(s.capacity) {
			return
		}
		next = int(math.Floor(float64(s.capacity) / s.factor))
	default:
		return
	}
	if next < s.size || next >= s.capacity {
		return
	}

	old := s.capacity
	s.resize(next)
	s.logger.Debug("Shrank stack", "size", s.size, "from", old, "to", next)
	s.notify(Event{Type: EventShrink, Size: s.size, OldCapacity: old, Capacity: next})
}

// grownCapacity computes the capacity after one growth step.
func (s *Stack) grownCapacity() (int, bool) {
	var next int
	var ok bool
	switch s.mode {
	case Additive:
		next, ok = addChecked(s.capacity, s.delta)
	case Multiplicative:
		next, ok = scaleChecked(s.capacity, s.factor, s.maxCapacity)
		if ok && next <= s.capacity {
			next, ok = addChecked(s.capacity, 1)
		}
	}
	if !ok || next > s.maxCapacity {
		return 0, false
	}
	if _, ok := addChecked(next, 2*guardWords); !ok {
		return 0, false
	}
	return next, true
}

// resize swaps in a new allocation. The new allocation is complete, guards included, before
// capacity and allocation change together.
func (s *Stack) resize(capacity int) {
	alloc := allocate(capacity, s.size, s.alloc)
	s.alloc, s.capacity = alloc, capacity
}

func addChecked[T constraints.Integer](a, b T) (T, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return c, false
	}
	return c, true
}

// scaleChecked returns ceil(n*f), failing when the result exceeds limit.
func scaleChecked[I constraints.Integer, F constraints.Float](n I, f F, limit I) (I, bool) {
	v := math.Ceil(float64(n) * float64(f))
	if math.IsNaN(v) || v < 0 || v > float64(limit) {
		return 0, false
	}
	return I(v), true
}
