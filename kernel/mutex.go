package kernel

// Mutex is the blocking mutex of spec.md §4.6: try/lock-with-timeout/
// unlock, with at most one waiter parked per mutex, using
// suspend+priority-boost as the wake mechanism. There is no fairness
// guarantee beyond the one-waiter boost, and additional contenders
// beyond the first waiter spin-yield (spec.md §9 — preserved as
// documented behavior, not extended to a FIFO queue).
type Mutex struct {
	k *Kernel

	locked      bool
	waiterSlot  ThreadID
	waiterTicks int32
}

// NewMutex creates a Mutex coordinating through k. A nil k uses the
// process-wide Default kernel.
func NewMutex(k *Kernel) *Mutex {
	if k == nil {
		k = Default()
	}
	return &Mutex{k: k, waiterSlot: InvalidThreadID}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	c := m.k.Enter()
	defer c.Release()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Lock acquires the mutex, blocking the calling thread if necessary.
// timeoutMs == 0 waits forever; otherwise Lock returns false once the
// deadline passes without acquisition (spec.md §4.6).
func (m *Mutex) Lock(timeoutMs uint32) bool {
	if m.TryLock() {
		return true
	}

	start := m.k.Millis()
	for {
		if m.TryLock() {
			return true
		}
		if timeoutMs != 0 && m.k.Millis()-start > uint64(timeoutMs) {
			return false
		}

		c := m.k.Enter()
		if m.waiterSlot == InvalidThreadID {
			id := m.k.CurrentID()
			m.waiterSlot = id
			m.waiterTicks = m.k.trampoline.TickCount
			m.k.Suspend(id)
		}
		c.Release()

		m.k.Yield()
	}
}

// Unlock releases the mutex. If a waiter is parked, its saved tick
// budget is applied as a one-shot priority boost, it is restarted, and
// YieldAndStart immediately dispatches it — guaranteeing scheduling is
// active before handing off (spec.md §4.6). The critical section
// bracketing every field mutation here doubles as the memory barrier
// spec.md §5 requires: a preemption immediately after Unlock observes
// the new state because it can only happen once the critical section
// (an atomic compare-and-swap) has been released.
func (m *Mutex) Unlock() error {
	c := m.k.Enter()
	if !m.locked {
		c.Release()
		return ErrMutexNotHeld
	}
	m.locked = false

	if m.waiterSlot == InvalidThreadID {
		c.Release()
		return nil
	}

	waiter := m.waiterSlot
	ticks := m.waiterTicks
	m.waiterSlot = InvalidThreadID
	_ = m.k.SetPriority(waiter, ticks)
	_ = m.k.Restart(waiter)
	c.Release()

	m.k.YieldAndStart()
	return nil
}

// Locked reports whether the mutex is currently held (GetState in
// spec.md §6).
func (m *Mutex) Locked() bool {
	c := m.k.Enter()
	defer c.Release()
	return m.locked
}
