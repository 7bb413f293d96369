package kernel

// Dispatcher performs the "supervisor-call instruction with a
// distinguished immediate" of spec.md §4.3/§6: an immediate context
// switch requested from thread code rather than from the tick ISR.
// On real hardware this is an SVC trap into the trampoline; in this
// module it is a collaborator the host simulation (kernel/simhost)
// implements, so unit tests of the scheduler policy alone can run with
// no Dispatcher installed at all (Yield becomes a no-op).
type Dispatcher interface {
	// Switch performs an immediate context switch to whatever thread
	// the scheduler selects next.
	Switch()
}

// SetDispatcher installs the collaborator Yield/YieldAndStart use to
// request an immediate switch.
func (k *Kernel) SetDispatcher(d Dispatcher) { k.dispatcher = d }

// Yield requests an immediate context switch (spec.md §4.3, SVC
// immediate 0x00).
func (k *Kernel) Yield() {
	if k.dispatcher != nil {
		k.dispatcher.Switch()
	}
}

// YieldAndStart sets scheduling active and then requests an immediate
// context switch (spec.md §4.3, SVC immediate 0x01) — used by
// Mutex.Unlock to guarantee scheduling is active before handing off to
// a woken waiter.
func (k *Kernel) YieldAndStart() {
	k.Start(Started)
	k.Yield()
}
