package stack

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
)

const (
	StructGuardLow  uint64 = 0xBADBEDAA
	StructGuardHigh uint64 = 0xABACADAF

	BoundaryGuardLow  uint64 = 0xDEADBEEF
	BoundaryGuardHigh uint64 = 0xABCDEABC
)

// guardWords is the number of sentinel words on each side of the element region.
const guardWords = 1

// Poison marks a dead slot. It can never be pushed.
var Poison = math.NaN()

func isPoison(v float64) bool {
	return math.IsNaN(v)
}

// Stack is a growable stack of float64 that checks its own integrity around every operation.
// It is not safe for concurrent use.
//
// The allocation holds capacity+2 words: a low boundary guard, the element slots, and a high
// boundary guard. Slots below size are live, the rest hold Poison.
type Stack struct {
	structGuardLow uint64

	id       uuid.UUID
	alloc    []float64
	size     int
	capacity int
	mode     GrowthMode
	delta    int
	factor   float64
	checksum uint64

	shrink      bool
	hysteresis  int
	maxCapacity int
	check       CheckLevel
	destroyed   bool

	config *Config
	logger *slog.Logger

	structGuardHigh uint64
}

// New constructs a stack with initialCapacity poisoned slots. delta is used by Additive
// growth and factor by Multiplicative growth.
func New(initialCapacity, delta int, factor float64, mode GrowthMode, opts ...Option) *Stack {
	cfg := NewConfig(opts...)
	s := &Stack{
		structGuardLow:  StructGuardLow,
		id:              uuid.New(),
		mode:            mode,
		delta:           delta,
		factor:          factor,
		shrink:          cfg.ShrinkOnPop,
		hysteresis:      cfg.Hysteresis,
		maxCapacity:     cfg.MaxCapacity,
		check:           cfg.CheckLevel,
		config:          cfg,
		structGuardHigh: StructGuardHigh,
	}
	s.logger = cfg.Logger.With("stack", s.id.String())

	if err := validatePolicy(initialCapacity, delta, factor, mode, cfg); err != nil {
		s.destroyed = true
		s.fail(err)
		return s
	}

	s.alloc = allocate(initialCapacity, 0, nil)
	s.capacity = initialCapacity
	s.checksum = s.digest()
	s.logger.Debug("Constructed stack", "capacity", initialCapacity, "mode", mode, "delta", delta, "factor", factor)

	s.guard("construct")
	return s
}

func validatePolicy(capacity, delta int, factor float64, mode GrowthMode, cfg *Config) *Error {
	switch {
	case capacity < 0:
		return newError(InvalidCapacity, "negative initial capacity %d", capacity)
	case cfg.MaxCapacity < 0 || capacity > cfg.MaxCapacity:
		return newError(InvalidCapacity, "initial capacity %d exceeds limit %d", capacity, cfg.MaxCapacity)
	case cfg.Hysteresis < 0:
		return newError(InvalidCapacity, "negative hysteresis %d", cfg.Hysteresis)
	}

	switch mode {
	case Additive:
		if delta < 1 {
			return newError(InvalidCapacity, "additive growth needs a positive delta, got %d", delta)
		}
	case Multiplicative:
		if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 1 {
			return newError(InvalidCapacity, "multiplicative growth needs a factor above 1, got %f", factor)
		}
	default:
		return newError(InvalidCapacity, "unknown growth mode %s", mode)
	}
	return nil
}

func (s *Stack) ID() uuid.UUID {
	return s.id
}

func (s *Stack) Size() int {
	return s.size
}

func (s *Stack) Capacity() int {
	return s.capacity
}

func (s *Stack) Mode() GrowthMode {
	return s.mode
}

func (s *Stack) Checksum() uint64 {
	return s.checksum
}

func (s *Stack) Destroyed() bool {
	return s.destroyed
}

// Push appends v. Pushing Poison is a contract violation.
func (s *Stack) Push(v float64) {
	if !s.guard("push") {
		return
	}
	if isPoison(v) {
		s.fail(newError(PoisonedValue, "push of the poison value"))
		return
	}
	if !s.growIfFull() {
		return
	}

	s.alloc[guardWords+s.size] = v
	s.size++
	s.checksum = s.digest()

	s.guard("push")
}

// Pop removes the top element. Popping an empty stack is a contract violation.
func (s *Stack) Pop() {
	if !s.guard("pop") {
		return
	}
	if s.size == 0 {
		s.fail(newError(EmptyStack, "pop on an empty stack"))
		return
	}

	s.size--
	s.alloc[guardWords+s.size] = Poison
	if s.shrink {
		s.shrinkIfSparse()
	}
	s.checksum = s.digest()

	s.guard("pop")
}

// Top returns the top element without removing it. On an empty stack it is a contract
// violation; if the fatal handler returns, Top returns Poison.
func (s *Stack) Top() float64 {
	if !s.guard("top") {
		return Poison
	}
	if s.size == 0 {
		s.fail(newError(EmptyStack, "top of an empty stack"))
		return Poison
	}
	return s.alloc[guardWords+s.size-1]
}

// Clear drops every element and poisons the vacated slots.
func (s *Stack) Clear() {
	if !s.guard("clear") {
		return
	}

	for i := 0; i < s.size; i++ {
		s.alloc[guardWords+i] = Poison
	}
	s.size = 0
	s.checksum = s.digest()

	s.guard("clear")
}

// Destroy runs a final full check and releases the allocation. The stack cannot be used
// afterwards.
func (s *Stack) Destroy() {
	if s == nil {
		Panic(newError(NilStack, "destroy of a nil stack"))
		return
	}
	if s.destroyed {
		s.fail(newError(Destroyed, "destroy of a destroyed stack"))
		return
	}
	if kind := s.Verify(); kind != OK {
		s.fail(newError(kind, "destroy of a corrupted stack"))
		return
	}

	s.notify(Event{Type: EventDestroy, Size: s.size, OldCapacity: s.capacity})
	s.logger.Debug("Destroyed stack", "size", s.size, "capacity", s.capacity)

	s.alloc = nil
	s.size = 0
	s.capacity = 0
	s.destroyed = true
	s.checksum = s.digest()
}

// guard brackets an operation at the configured check level. It reports whether the
// operation may proceed.
func (s *Stack) guard(op string) bool {
	if s == nil {
		Panic(newError(NilStack, "%s on a nil stack", op))
		return false
	}
	if s.destroyed {
		s.fail(newError(Destroyed, "%s on a destroyed stack", op))
		return false
	}
	if s.check == CheckNone {
		return true
	}

	kind := s.verifyStructure()
	if kind == OK && s.check == CheckFull {
		kind = s.verifyContents()
	}
	if kind != OK {
		s.fail(newError(kind, "integrity check failed during %s", op))
		return false
	}
	return true
}

// fail logs err, writes the dump and hands err to the fatal handler.
func (s *Stack) fail(err *Error) {
	s.logger.Error("Stack failure", "kind", err.Kind, "error", err.Message, "size", s.size, "capacity", s.capacity)
	if err.Kind.Corruption() {
		s.notify(Event{Type: EventCorruption, Size: s.size, Capacity: s.capacity, Kind: err.Kind})
	}
	if dumpErr := s.Dump(); dumpErr != nil {
		s.logger.Error("Error writing stack dump", "error", dumpErr)
		err.Err = dumpErr
	}
	s.config.FatalHandler(err)
}

func (s *Stack) notify(e Event) {
	if s.config.Observer == nil {
		return
	}
	e.Stack = s.id
	e.Mode = s.mode
	s.config.Observer.Observe(e)
}
