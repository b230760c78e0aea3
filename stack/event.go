package stack

import (
	"fmt"

	"github.com/google/uuid"
)

type EventType int

const (
	EventGrow EventType = iota + 1
	EventShrink
	EventCorruption
	EventDestroy
)

func (t EventType) String() string {
	switch t {
	case EventGrow:
		return "grow"
	case EventShrink:
		return "shrink"
	case EventCorruption:
		return "corruption"
	case EventDestroy:
		return "destroy"
	default:
		return fmt.Sprintf("EventType(%d)", t)
	}
}

// Event describes a capacity change or a detected failure.
type Event struct {
	Type        EventType
	Stack       uuid.UUID
	Mode        GrowthMode
	Size        int
	OldCapacity int
	Capacity    int
	Kind        ErrorKind
}

type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}
