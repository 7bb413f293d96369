package kernel

import "sync/atomic"

// DefaultMaxThreads is the default compile-time thread table capacity
// (spec.md §3, "capacity known at build time (e.g. 8-16)").
const DefaultMaxThreads = 16

const mainThreadID ThreadID = 0

// TrampolineState is the ABI-contractual state a Kernel publishes for
// the external assembly context-switch trampoline to consume
// (spec.md §6). Field names mirror the "published variables" list
// there and TeensyThreads.cpp's currentThread/currentSave/currentMSP/
// currentSP/currentActive/currentCount/currentUseSystick globals.
type TrampolineState struct {
	ThreadDesc   *ThreadDescriptor
	SaveArea     *SaveArea
	UseMainStack bool
	SP           uintptr
	Active       ActiveState
	TickCount    int32
	UseSystick   bool
}

// Kernel owns the thread table and all scheduler-global state
// described in spec.md §3. The spec models this as a process-wide
// singleton; this implementation exposes a constructor so tests can
// run independent kernels concurrently, and Default returns the
// process-wide instance real firmware would use.
//
// Every field below is scheduler state. AddThread, Terminate, ID, the
// Mutex operations and the tick/selection path (OnSysTick,
// OnIntervalTick, Next) touch it inside a critical section or with
// interrupts disabled. Kill, Suspend, Restart, SetState, SetPriority
// and SetTimeSlice do not: each writes a single descriptor field
// directly, without taking a critical section.
type Kernel struct {
	threads      [DefaultMaxThreads]ThreadDescriptor
	currentIdx   ThreadID
	threadCount  int32
	activeState  ActiveState
	defaultTicks int32
	defaultStack uintptr
	useMicroTmr  bool

	// StrictPriorityScan selects between the literal source behavior
	// (test the *current* thread's flags while scanning for a
	// priority candidate — spec.md §9's flagged ambiguity) and the
	// evidently-intended fix (test the *candidate's* flags). Default
	// false reproduces the shipped TeensyThreads behavior exactly.
	StrictPriorityScan bool

	millis atomic.Uint64

	trampoline TrampolineState

	microTimer IntervalTimer
	alloc      Allocator
	dispatcher Dispatcher
}

// New creates an independent Kernel instance with slot 0 already
// RUNNING as the initial (main) execution context, matching the
// Threads constructor in TeensyThreads.cpp.
func New() *Kernel {
	k := &Kernel{
		defaultTicks: 9, // stored as ticks-1; caller-visible default is 10
		defaultStack: 1024,
		activeState:  FirstRun,
	}
	main := &k.threads[mainThreadID]
	main.flags = Running
	main.ticks = k.defaultTicks
	main.save.LR = ReturnToThreadPSP
	k.threadCount = 1
	k.trampoline = TrampolineState{
		ThreadDesc:   main,
		SaveArea:     &main.save,
		UseMainStack: true,
		Active:       k.activeState,
		TickCount:    main.ticks,
		UseSystick:   true,
	}
	return k
}

var defaultKernel = New()

// Default returns the process-wide Kernel singleton, as spec.md §9
// recommends for a target where the scheduler needs global reach from
// both ISR and thread context.
func Default() *Kernel { return defaultKernel }

// ThreadCount returns the number of non-EMPTY, non-ENDED slots.
func (k *Kernel) ThreadCount() int { return int(atomic.LoadInt32(&k.threadCount)) }

// State returns slot id's flags (GetState in spec.md §6).
func (k *Kernel) State(id ThreadID) (Flags, error) {
	if !k.validID(id) {
		return Empty, ErrInvalidID
	}
	return k.threads[id].flags, nil
}

// SetState forcibly sets a slot's flags (SetState in spec.md §6). Used
// sparingly; prefer Kill/Suspend/Restart.
func (k *Kernel) SetState(id ThreadID, f Flags) error {
	if !k.validID(id) {
		return ErrInvalidID
	}
	k.threads[id].flags = f
	return nil
}

// Descriptor returns a pointer to id's thread table slot, for callers
// that need more than the State/SetState summary — e.g. inspecting
// stack bounds or the register save area for a context-switch
// trampoline.
func (k *Kernel) Descriptor(id ThreadID) (*ThreadDescriptor, error) {
	if !k.validID(id) {
		return nil, ErrInvalidID
	}
	return &k.threads[id], nil
}

func (k *Kernel) validID(id ThreadID) bool {
	return id >= 0 && int(id) < len(k.threads) && k.threads[id].flags != Empty
}

// Trampoline returns the last-published ABI-contractual state
// (spec.md §6) for an external context-switch routine to consume.
func (k *Kernel) Trampoline() TrampolineState { return k.trampoline }

// SetDefaultStackSize sets the stack size used when AddThread is
// called with stackSize == 0.
func (k *Kernel) SetDefaultStackSize(n uintptr) { k.defaultStack = n }

// SetDefaultTimeSlice sets the tick budget new threads receive.
func (k *Kernel) SetDefaultTimeSlice(ticks int32) {
	if ticks < 1 {
		ticks = 1
	}
	k.defaultTicks = ticks - 1
}
