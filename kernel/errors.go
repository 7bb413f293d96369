package kernel

import "errors"

// Sentinel errors, in the style of the teacher's builder/errors.go.
// The kernel's C-derived API surface (spec.md §7) reports failure via
// plain int/bool return values (-1, 0, false); these errors let
// idiomatic Go callers use errors.Is instead where a wrapper is
// offered. Kernel.Wait is the wrapper, returning one of these
// alongside its ThreadID; Kernel.WaitRaw is its raw, -1-on-failure
// twin matching the source's calling convention directly. Mutex.Lock
// has no such pair — it already returns a bool matching the source,
// with no error-returning counterpart.
var (
	// ErrNoFreeSlot is returned when AddThread finds no EMPTY/ENDED slot.
	ErrNoFreeSlot = errors.New("kernel: no free thread slot")
	// ErrInvalidID is returned for an out-of-range or EMPTY thread id.
	ErrInvalidID = errors.New("kernel: invalid thread id")
	// ErrTimerBusy is returned when the programmable interval timer
	// cannot be armed.
	ErrTimerBusy = errors.New("kernel: interval timer unavailable")
	// ErrTimeout is returned when Wait exceeds its deadline.
	ErrTimeout = errors.New("kernel: timed out")
	// ErrMutexNotHeld is returned by Unlock when the mutex is not locked.
	ErrMutexNotHeld = errors.New("kernel: mutex not held")
)
