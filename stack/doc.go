// Package stack implements a resizable float64 stack that detects its own corruption.
//
// Every stack carries four sentinels (two in the record, two around the element region), a
// poison value in every dead slot and a checksum over the record and the allocation. Each
// operation is bracketed by an integrity check whose strength is chosen with WithCheckLevel.
// A failed check, or a misuse such as popping an empty stack, is fatal: the failure is
// logged, a dump is written and the fatal handler runs. The default handler panics with a
// *Error, so callers that want to inspect the failure can recover it:
//
//	defer func() {
//		if r := recover(); r != nil {
//			err := r.(*stack.Error)
//			...
//		}
//	}()
//
// Verify is the only non-fatal query; it returns the first failing check as an ErrorKind.
package stack
