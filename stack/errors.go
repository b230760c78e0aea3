package stack

import "fmt"

// ErrorKind classifies the outcome of an integrity check or a contract violation.
type ErrorKind int

const (
	OK ErrorKind = iota
	Overflow
	InvalidCapacity
	InvalidSize
	SentinelCorruption
	ChecksumMismatch
	PoisonInconsistency

	// contract violations; never returned by Verify
	EmptyStack
	PoisonedValue
	NilStack
	Destroyed
)

var kindNames = [...]string{
	"OK",
	"OVERFLOW",
	"INVALID_CAPACITY",
	"INVALID_SIZE",
	"SENTINEL_CORRUPTION",
	"CHECKSUM_MISMATCH",
	"POISON_INCONSISTENCY",
	"EMPTY_STACK",
	"POISONED_VALUE",
	"NIL_STACK",
	"DESTROYED",
}

func (k ErrorKind) String() string {
	if k < OK || k > Destroyed {
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
	return kindNames[k]
}

func (k ErrorKind) GoString() string {
	return "stack." + k.String()
}

// Corruption reports whether k describes damaged state rather than a misuse of the API.
func (k ErrorKind) Corruption() bool {
	return k >= Overflow && k <= PoisonInconsistency
}

/* *** Errors *** */

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message; a zero Kind or an empty Message in target acts as a wildcard.
func (e Error) Is(target error) bool {
	var other Error
	switch t := target.(type) {
	case Error:
		other = t
	case *Error:
		if t == nil {
			return false
		}
		other = *t
	default:
		return false
	}

	ignoreKind := other.Kind == OK
	ignoreMessage := other.Message == ""
	matchKind := other.Kind == e.Kind
	matchMessage := other.Message == e.Message

	return matchMessage && matchKind || matchMessage && ignoreKind || ignoreMessage && matchKind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...)),
	}
}
