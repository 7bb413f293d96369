package kernel

import "unsafe"

// Flags is a thread slot's lifecycle state (spec.md §3).
type Flags int32

const (
	// Empty means the slot has never been used.
	Empty Flags = iota
	// Running means the thread is eligible for scheduling.
	Running
	// Ended means the thread finished; the slot is reusable and its
	// stack (if kernel-owned) will be freed on reuse, not before.
	Ended
	// Suspended means the thread is ineligible until explicitly Restarted.
	Suspended
)

func (f Flags) String() string {
	switch f {
	case Empty:
		return "EMPTY"
	case Running:
		return "RUNNING"
	case Ended:
		return "ENDED"
	case Suspended:
		return "SUSPENDED"
	default:
		return "UNKNOWN"
	}
}

// ActiveState gates whether context switches are permitted.
type ActiveState int32

const (
	// Stopped means the tick ISR must not invoke the scheduler.
	Stopped ActiveState = iota
	// Started means normal round-robin/priority scheduling is active.
	Started
	// FirstRun is the transient state before the very first dispatch.
	FirstRun
)

func (s ActiveState) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Started:
		return "STARTED"
	case FirstRun:
		return "FIRST_RUN"
	default:
		return "UNKNOWN"
	}
}

// SaveArea is the small, stack-external register save area the
// context-switch trampoline uses to hold callee-saved registers plus a
// link-register image (spec.md §3, "save"). The core never interprets
// its contents; it only carries the LR image the trampoline consults to
// decide how to return from exception.
type SaveArea struct {
	// LR is the link-register return-image the trampoline restores.
	// 0xFFFFFFF9 is the standard EXC_RETURN value for "return to
	// thread mode using the process stack, no floating-point state" on
	// Cortex-M.
	LR uintptr
	// Regs holds the callee-saved general-purpose registers (R4-R11 on
	// Cortex-M) captured outside the thread's own stack frame. Opaque
	// to the scheduler; only the assembly trampoline reads/writes it.
	Regs [8]uintptr
}

// ReturnToThreadPSP is the EXC_RETURN value that resumes thread mode
// using the process stack pointer with no active floating-point
// context — the value TeensyThreads and SiGo both use to seed a fresh
// thread's save area.
const ReturnToThreadPSP uintptr = 0xFFFFFFF9

// ThreadDescriptor is one fixed-size slot in the thread table
// (spec.md §3).
type ThreadDescriptor struct {
	flags Flags

	stackBase unsafe.Pointer
	stackSize uintptr
	// stackOwned is true when the kernel allocated the stack and must
	// free it before the slot is reused.
	stackOwned bool

	// sp is this thread's top-of-stack. For the active thread between
	// ticks this field is stale; the live value lives in the CPU (or,
	// on the host simulation, in the Go goroutine's own stack).
	sp unsafe.Pointer

	save SaveArea

	// ticks is the number of tick events this thread consumes before
	// yielding to the next, stored as one less than the caller
	// requested (the countdown is inclusive of zero).
	ticks int32

	// priority is a one-shot boost counter: non-zero means "schedule
	// me next once, then clear."
	priority int32
}

// Flags reports the slot's current lifecycle state.
func (t *ThreadDescriptor) Flags() Flags { return t.flags }

// StackBase returns the first byte of this thread's stack region.
func (t *ThreadDescriptor) StackBase() unsafe.Pointer { return t.stackBase }

// StackSize returns the size in bytes of this thread's stack region.
func (t *ThreadDescriptor) StackSize() uintptr { return t.stackSize }

// SP returns the thread's saved stack pointer. Meaningful only for a
// thread that is not the one currently executing.
func (t *ThreadDescriptor) SP() unsafe.Pointer { return t.sp }

// SaveArea returns a pointer to the thread's register save area, for
// consumption by an assembly context-switch trampoline.
func (t *ThreadDescriptor) SaveArea() *SaveArea { return &t.save }

// ThreadID identifies a slot in the thread table for the lifetime of a
// single use of that slot.
type ThreadID int32

// InvalidThreadID is returned by operations that fail to allocate or
// locate a slot.
const InvalidThreadID ThreadID = -1

// ThreadFunc is a thread entry point. arg is the opaque pointer passed
// to AddThread, delivered back exactly as-is (spec.md §4.2/§4.7
// "Stack bootstrap round-trip").
type ThreadFunc func(arg unsafe.Pointer)
