package kernel

import "sync/atomic"

// interruptsDisabled models the single-core "disable IRQ" bracket the
// original Threads::Suspend/stop/start wrap every scheduler-state
// access in. On the host there is no CPU interrupt mask to flip; a
// package-level mutex-free spinlock over a single flag stands in for
// it, since the kernel is otherwise only ever touched from the tick
// ISR (simulated) or while this flag is held.
var interruptsDisabled atomic.Bool

func disableInterrupts() {
	for !interruptsDisabled.CompareAndSwap(false, true) {
		// A real target never contends here: __disable_irq is a single
		// instruction. The host build only spins if a critical section
		// is (incorrectly) entered reentrantly from two goroutines.
	}
}

func enableInterrupts() {
	interruptsDisabled.Store(false)
}

// Stop halts scheduling and returns the prior ActiveState, matching
// Threads::stop() in TeensyThreads.cpp. The tick ISR still runs but
// observes Stopped and does not invoke the scheduler.
func (k *Kernel) Stop() ActiveState {
	disableInterrupts()
	prev := k.activeState
	k.activeState = Stopped
	enableInterrupts()
	return prev
}

// Start resumes scheduling at the given prior state (Threads::start()).
// Passing -1-equivalent "no preference" is not modeled in Go; callers
// pass the exact ActiveState Stop returned, or Started directly.
func (k *Kernel) Start(prev ActiveState) ActiveState {
	disableInterrupts()
	old := k.activeState
	k.activeState = prev
	enableInterrupts()
	return old
}

// ActiveState reports the current scheduling gate state.
func (k *Kernel) ActiveState() ActiveState {
	disableInterrupts()
	s := k.activeState
	enableInterrupts()
	return s
}

// CriticalSection is a scoped guard (spec.md §4.5) that halts
// scheduling while the caller observes or mutates scheduler-shared
// state, restoring the prior ActiveState on Release. It is re-entrant
// with respect to nesting: constructing one inside another captures
// and restores exactly the outer's prior state, per §8 property 8.
type CriticalSection struct {
	k    *Kernel
	prev ActiveState
	done bool
}

// Enter constructs and immediately activates a CriticalSection.
func (k *Kernel) Enter() *CriticalSection {
	return &CriticalSection{k: k, prev: k.Stop()}
}

// Release restores the ActiveState captured at construction. Calling
// Release more than once is a no-op.
func (c *CriticalSection) Release() {
	if c.done {
		return
	}
	c.k.Start(c.prev)
	c.done = true
}
