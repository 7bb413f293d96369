package kernel

// IntervalTimer is the programmable microsecond timer collaborator of
// spec.md §4.4 (the source's IntervalTimer / Cortex-M TC/PIT
// peripheral). The concrete implementations in this module live in
// kernel/simhost (a manually fired fake and a time.Ticker-backed host
// stand-in); kernel/arch/cortexm provides none.
type IntervalTimer interface {
	// Arm configures the timer to fire every us microseconds, wired to
	// fire is invoked from interrupt context on every period. It
	// reports false if the timer could not be armed (spec.md §7,
	// "Timer bring-up failure").
	Arm(us uint32, fire func()) bool
	Disarm()
}

// Millis returns the free-running millisecond counter Wait/Delay/Mutex
// timeouts are measured against.
func (k *Kernel) Millis() uint64 { return k.millis.Load() }

// AdvanceMillis bumps the millisecond counter without touching the
// scheduler. Real hardware only ever advances it from inside
// OnSysTick, alongside a scheduling decision; a host simulation driver
// (kernel/simhost) that cannot forcibly preempt a running goroutine
// mid-instruction uses this to advance wall-clock time between the
// cooperative suspension points (Yield/Wait/Delay/Mutex.Lock) that
// spec.md §5 identifies as the only safe preemption points it can
// actually honor without real hardware.
func (k *Kernel) AdvanceMillis(n uint64) { k.millis.Add(n) }

// SetMicroTimer arms the installed IntervalTimer, wires it to
// OnIntervalTick, and switches the tick source to it (spec.md §4.4).
// It sets no interrupt priority itself; that is whatever the installed
// IntervalTimer's Arm does. Returns false on bring-up failure,
// including when no IntervalTimer is installed.
func (k *Kernel) SetMicroTimer(us uint32) bool {
	if k.microTimer == nil {
		return false
	}
	if !k.microTimer.Arm(us, func() { k.OnIntervalTick(0) }) {
		return false
	}
	k.useMicroTmr = true
	return true
}

// SetIntervalTimer installs the IntervalTimer collaborator SetMicroTimer
// and SetSliceMicros arm.
func (k *Kernel) SetIntervalTimer(t IntervalTimer) { k.microTimer = t }

// SetSliceMicros switches to the microsecond timer and sets the
// default tick budget to one tick per slice, so one timer fire equals
// one context switch.
func (k *Kernel) SetSliceMicros(us uint32) bool {
	if !k.SetMicroTimer(us) {
		return false
	}
	k.SetDefaultTimeSlice(1)
	return true
}

// SetSliceMillis sets the default tick budget in milliseconds. If the
// system tick source is active, one tick equals one millisecond and
// this just sets the default tick count; otherwise it switches to the
// microsecond timer at ms*1000us with one tick per slice.
func (k *Kernel) SetSliceMillis(ms uint32) bool {
	if !k.useMicroTmr {
		k.SetDefaultTimeSlice(int32(ms))
		return true
	}
	return k.SetSliceMicros(ms * 1000)
}

// SetTimeSlice overrides the tick budget for a single thread.
func (k *Kernel) SetTimeSlice(id ThreadID, ticks int32) error {
	if !k.validID(id) {
		return ErrInvalidID
	}
	if ticks < 1 {
		ticks = 1
	}
	k.threads[id].ticks = ticks - 1
	return nil
}

// SetPriority sets a one-shot priority boost on id (or the current
// thread, if id == InvalidThreadID). level marks the boost as pending
// (any non-zero value); the tick budget the selection publishes when
// the boost fires is always the thread's own persisted ticks field
// (spec.md §4.1's "its ticks value is loaded as the next tick
// budget"), not level itself — level only ever needs to be non-zero,
// matching Threads::setPriority in TeensyThreads.cpp, whose "ticks"
// argument is stored but only ever read as a truthiness check.
func (k *Kernel) SetPriority(id ThreadID, level int32) error {
	if id == InvalidThreadID {
		id = k.currentIdx
	}
	if !k.validID(id) {
		return ErrInvalidID
	}
	k.threads[id].priority = level
	return nil
}

// consumeTick is the per-tick decision point shared by OnSysTick and
// OnIntervalTick: decrement the currently published tick countdown,
// and only call Next (the actual selection policy) once it has run
// out. This is what makes SetTimeSlice/SetDefaultTimeSlice/
// SetSliceMillis's configured slice lengths take effect instead of
// running the selection policy on every single tick — a thread
// configured for N ticks keeps currentIdx pointed at it for its first
// N-1 ticks and only triggers a reselection on the Nth, mirroring
// TeensyThreads.cpp's context_switch decrementing its own currentCount
// every tick and only calling getNextThread() once it runs out. The
// lock is released before calling Next, which takes it again itself.
func (k *Kernel) consumeTick(outgoingSP uintptr) TrampolineState {
	disableInterrupts()
	remaining := k.trampoline.TickCount
	if remaining > 0 {
		k.trampoline.TickCount = remaining - 1
	}
	state := k.trampoline
	enableInterrupts()

	if remaining > 0 {
		return state
	}
	return k.Next(outgoingSP)
}

// OnSysTick is the system tick interrupt handler (spec.md §4.4): it
// always advances the millisecond counter, and additionally consumes a
// tick against the current thread's slice if the system tick is the
// active tick source and scheduling is not stopped. It returns the
// freshly published trampoline state whenever the tick source is
// active, and ok=false when the tick only advanced the clock (either
// because the microsecond timer is the active source, or scheduling is
// stopped). A true ok does not by itself mean a switch happened — see
// consumeTick.
func (k *Kernel) OnSysTick(outgoingSP uintptr) (state TrampolineState, ok bool) {
	k.millis.Add(1)
	if k.useMicroTmr || k.activeState == Stopped {
		return TrampolineState{}, false
	}
	return k.consumeTick(outgoingSP), true
}

// OnIntervalTick is the programmable interval timer's ISR: unlike
// OnSysTick it never touches the millisecond counter (that stays tied
// to the system tick per spec.md §4.4) and consumes a tick against the
// current thread's slice whenever scheduling is not stopped.
func (k *Kernel) OnIntervalTick(outgoingSP uintptr) (state TrampolineState, ok bool) {
	if k.activeState == Stopped {
		return TrampolineState{}, false
	}
	return k.consumeTick(outgoingSP), true
}
