package stack

import (
	"fmt"
	"strings"
)

// GrowthMode selects the resize policy. It is fixed when the stack is constructed.
type GrowthMode int

const (
	Additive GrowthMode = iota + 1
	Multiplicative
)

func (m GrowthMode) String() string {
	switch m {
	case Additive:
		return "ADDITIVE"
	case Multiplicative:
		return "MULTIPLICATIVE"
	default:
		return fmt.Sprintf("GrowthMode(%d)", m)
	}
}

func (m GrowthMode) GoString() string {
	return "stack." + m.String()
}

func ParseGrowthMode(s string) (GrowthMode, error) {
	switch strings.ToUpper(s) {
	case "ADDITIVE", "DELTA", "PLUS":
		return Additive, nil
	case "MULTIPLICATIVE", "FACTOR", "TIMES":
		return Multiplicative, nil
	default:
		return 0, fmt.Errorf("invalid growth mode: %s", s)
	}
}

// CheckLevel controls how much verification brackets each operation.
type CheckLevel int

const (
	// CheckNone disables bracketing; Verify still works on demand.
	CheckNone CheckLevel = iota
	// CheckStructural covers bounds and the four sentinels.
	CheckStructural
	// CheckFull adds the checksum and the poison scan.
	CheckFull
)

func (l CheckLevel) String() string {
	names := [...]string{"NONE", "STRUCTURAL", "FULL"}
	if l < CheckNone || l > CheckFull {
		return fmt.Sprintf("CheckLevel(%d)", l)
	}
	return names[l]
}

func ParseCheckLevel(s string) (CheckLevel, error) {
	switch strings.ToUpper(s) {
	case "NONE", "OFF", "RELEASE":
		return CheckNone, nil
	case "STRUCTURAL", "CHEAP":
		return CheckStructural, nil
	case "FULL", "DEBUG", "":
		return CheckFull, nil
	default:
		return -1, fmt.Errorf("invalid check level: %s", s)
	}
}
