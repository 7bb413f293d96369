package kernel

import (
	"unsafe"

	"golang.org/x/exp/slices"
)

// AddThread creates a new thread (spec.md §4.3). If stack is nil, a
// stackSize-byte buffer is allocated via the installed Allocator and
// owned by the kernel; otherwise the caller's buffer is used as-is. If
// stackSize is 0, the kernel's configured default is used. Returns
// ErrNoFreeSlot if the table has no EMPTY/ENDED slot (slot 0, the main
// context, is never a candidate).
func (k *Kernel) AddThread(entry ThreadFunc, arg unsafe.Pointer, stackSize uintptr, stack unsafe.Pointer) (ThreadID, error) {
	prev := k.Stop()

	if stackSize == 0 {
		stackSize = k.defaultStack
	}

	idx := slices.IndexFunc(k.threads[1:], func(t ThreadDescriptor) bool {
		return t.flags == Ended || t.flags == Empty
	})
	if idx < 0 {
		k.Start(prev)
		return InvalidThreadID, ErrNoFreeSlot
	}
	id := ThreadID(idx + 1)
	td := &k.threads[id]

	if td.stackBase != nil && td.stackOwned {
		k.allocator().Free(td.stackBase)
	}

	owned := false
	if stack == nil {
		stack = k.allocator().Alloc(stackSize)
		owned = true
	}

	td.stackBase = stack
	td.stackSize = stackSize
	td.stackOwned = owned
	td.sp = InitStack(entry, arg, stack, stackSize)
	td.ticks = k.defaultTicks
	td.flags = Running
	td.save = SaveArea{LR: ReturnToThreadPSP}
	td.priority = 0

	k.threadCount++

	if prev == Started || prev == FirstRun {
		k.Start(Started)
	} else {
		k.Start(prev)
	}
	return id, nil
}

// Kill marks a thread ENDED. Its stack is not freed here — only on
// slot reuse inside AddThread (spec.md §4.3, §9).
func (k *Kernel) Kill(id ThreadID) error {
	if !k.validID(id) {
		return ErrInvalidID
	}
	if k.threads[id].flags != Ended {
		k.threadCount--
	}
	k.threads[id].flags = Ended
	return nil
}

// Suspend marks a thread ineligible until Restart.
func (k *Kernel) Suspend(id ThreadID) error {
	if !k.validID(id) {
		return ErrInvalidID
	}
	k.threads[id].flags = Suspended
	return nil
}

// Restart marks a thread RUNNING again.
func (k *Kernel) Restart(id ThreadID) error {
	if !k.validID(id) {
		return ErrInvalidID
	}
	k.threads[id].flags = Running
	return nil
}

// Terminate performs the termination shim's job (spec.md §4.3): stop
// scheduling, mark the slot ENDED, decrement thread_count, resume
// scheduling. In this implementation it is invoked by the host
// simulation (kernel/simhost) after a thread's entry function returns,
// standing in for the synthetic stack frame's link-register image
// being "jumped to" on a real target.
func (k *Kernel) Terminate(id ThreadID) error {
	prev := k.Stop()
	if !k.validID(id) {
		k.Start(prev)
		return ErrInvalidID
	}
	if k.threads[id].flags != Ended {
		k.threadCount--
	}
	k.threads[id].flags = Ended
	k.Start(prev)
	return nil
}

// Wait spin-yields until id's flags differ from RUNNING, or timeoutMs
// elapses (0 means wait forever). Returns the id on success.
func (k *Kernel) Wait(id ThreadID, timeoutMs uint32) (ThreadID, error) {
	start := k.Millis()
	for {
		if timeoutMs != 0 && k.Millis()-start > uint64(timeoutMs) {
			return InvalidThreadID, ErrTimeout
		}
		if !k.validID(id) {
			return InvalidThreadID, ErrInvalidID
		}
		if k.threads[id].flags != Running {
			return id, nil
		}
		k.Yield()
	}
}

// WaitRaw mirrors the source library's wait(): -1 on timeout or
// invalid id, the id on success.
func (k *Kernel) WaitRaw(id ThreadID, timeoutMs uint32) ThreadID {
	tid, err := k.Wait(id, timeoutMs)
	if err != nil {
		return InvalidThreadID
	}
	return tid
}

// Delay yield-loops until the millisecond counter advances by ms.
func (k *Kernel) Delay(ms uint32) {
	start := k.Millis()
	for k.Millis()-start < uint64(ms) {
		k.Yield()
	}
}

// ID returns the currently executing thread's slot index, read inside
// a critical section.
func (k *Kernel) ID() ThreadID {
	c := k.Enter()
	defer c.Release()
	return k.currentIdx
}

// GetStackUsed returns bytes used between the stack base and the
// thread's saved stack pointer. Meaningful only for a thread other
// than the one currently executing (spec.md §4.3).
func (k *Kernel) GetStackUsed(id ThreadID) (int, error) {
	if !k.validID(id) {
		return 0, ErrInvalidID
	}
	td := &k.threads[id]
	top := uintptr(td.stackBase) + td.stackSize
	return int(top - uintptr(td.sp)), nil
}

// GetStackRemaining returns bytes remaining between the thread's saved
// stack pointer and the stack base.
func (k *Kernel) GetStackRemaining(id ThreadID) (int, error) {
	if !k.validID(id) {
		return 0, ErrInvalidID
	}
	td := &k.threads[id]
	return int(uintptr(td.sp) - uintptr(td.stackBase)), nil
}
