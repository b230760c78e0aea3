package stack

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

const checksumSeed uint64 = 0x5DEECE66D

// Verify runs the full integrity protocol and returns the first failing check, or OK.
// The order is fixed: size against capacity, capacity, size, the four sentinels, the
// checksum, then the poison scan. Verify never changes the stack.
func (s *Stack) Verify() ErrorKind {
	if s == nil {
		return NilStack
	}
	if s.destroyed {
		return Destroyed
	}
	if kind := s.verifyStructure(); kind != OK {
		return kind
	}
	return s.verifyContents()
}

// VerifyError is Verify wrapped as an error; nil when the stack is valid.
func (s *Stack) VerifyError() error {
	kind := s.Verify()
	switch kind {
	case OK:
		return nil
	case NilStack:
		return newError(kind, "nil stack")
	}
	return newError(kind, "stack %s failed verification", s.id)
}

// verifyStructure is the cheap check: bounds and sentinels.
func (s *Stack) verifyStructure() ErrorKind {
	if s.size > s.capacity {
		return Overflow
	}
	if s.capacity < 0 || s.capacity > s.maxCapacity || len(s.alloc) != s.capacity+2*guardWords {
		return InvalidCapacity
	}
	if s.size < 0 {
		return InvalidSize
	}
	if math.Float64bits(s.alloc[0]) != BoundaryGuardLow {
		return SentinelCorruption
	}
	if math.Float64bits(s.alloc[guardWords+s.capacity]) != BoundaryGuardHigh {
		return SentinelCorruption
	}
	if s.structGuardLow != StructGuardLow || s.structGuardHigh != StructGuardHigh {
		return SentinelCorruption
	}
	return OK
}

// verifyContents is the expensive check. It assumes verifyStructure passed.
func (s *Stack) verifyContents() ErrorKind {
	if s.checksum != s.digest() {
		return ChecksumMismatch
	}
	for i := 0; i < s.capacity; i++ {
		poisoned := isPoison(s.alloc[guardWords+i])
		if i < s.size && poisoned || i >= s.size && !poisoned {
			return PoisonInconsistency
		}
	}
	return OK
}

// digest mixes the record and the whole allocation, sentinels and poisoned slots included.
// The running value is rotated around each section so the sections do not commute.
func (s *Stack) digest() uint64 {
	return digestOf(s.recordBytes(), s.alloc)
}

func digestOf(record []byte, alloc []float64) uint64 {
	h := bits.RotateLeft64(checksumSeed, 13) ^ xxhash.Sum64(record)
	h = bits.RotateLeft64(h, 29)

	d := xxhash.New()
	var word [8]byte
	for _, v := range alloc {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
		_, _ = d.Write(word[:])
	}
	h ^= d.Sum64()

	return bits.RotateLeft64(h, 7)
}

// recordBytes lays out every metadata field except the checksum itself.
func (s *Stack) recordBytes() []byte {
	b := make([]byte, 0, 128)
	b = binary.LittleEndian.AppendUint64(b, s.structGuardLow)
	b = append(b, s.id[:]...)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(s.alloc)))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.size))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.capacity))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.mode))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.delta))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(s.factor))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.hysteresis))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.maxCapacity))
	b = binary.LittleEndian.AppendUint64(b, uint64(s.check))
	b = append(b, boolByte(s.shrink), boolByte(s.destroyed))
	b = binary.LittleEndian.AppendUint64(b, s.structGuardHigh)
	return b
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
