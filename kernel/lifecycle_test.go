package kernel_test

import (
	"testing"
	"time"
	"unsafe"

	"corertos.dev/corertos/kernel"
)

// trackingAllocator counts Free calls per pointer so a test can assert a
// kernel-owned stack is freed exactly once, on slot reuse.
type trackingAllocator struct {
	frees map[unsafe.Pointer]int
}

func newTrackingAllocator() *trackingAllocator {
	return &trackingAllocator{frees: map[unsafe.Pointer]int{}}
}

func (a *trackingAllocator) Alloc(size uintptr) unsafe.Pointer {
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0])
}

func (a *trackingAllocator) Free(ptr unsafe.Pointer) {
	a.frees[ptr]++
}

// TestSlotReuseLowestIndex is spec property 4's first half: after a
// thread ends, the next add_thread call returns the lowest-indexed
// non-RUNNING slot.
func TestSlotReuseLowestIndex(t *testing.T) {
	k := kernel.New()
	ids := addThreads(t, k, 3)

	if err := k.Kill(ids[1]); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	id, err := k.AddThread(noopEntry, nil, 0, nil)
	if err != nil {
		t.Fatalf("AddThread: %v", err)
	}
	if id != ids[1] {
		t.Fatalf("expected reused slot %d, got %d", ids[1], id)
	}
}

// TestSlotReuseFreesStackExactlyOnce is spec property 4's second half.
func TestSlotReuseFreesStackExactlyOnce(t *testing.T) {
	k := kernel.New()
	alloc := newTrackingAllocator()
	k.SetAllocator(alloc)

	id, err := k.AddThread(noopEntry, nil, 64, nil)
	if err != nil {
		t.Fatalf("AddThread: %v", err)
	}
	td, err := k.Descriptor(id)
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	base := td.StackBase()

	if err := k.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if alloc.frees[base] != 0 {
		t.Fatalf("stack freed before slot reuse: %d frees", alloc.frees[base])
	}

	if _, err := k.AddThread(noopEntry, nil, 64, nil); err != nil {
		t.Fatalf("AddThread (reuse): %v", err)
	}
	if alloc.frees[base] != 1 {
		t.Fatalf("expected exactly one free on slot reuse, got %d", alloc.frees[base])
	}
}

// TestAddThreadExhaustionAndReuse is end-to-end scenario S4, adapted to
// this table's DefaultMaxThreads (16, including slot 0) rather than the
// source's smaller example table: filling every non-main slot exhausts
// add_thread, and killing one slot frees it for the very next call.
func TestAddThreadExhaustionAndReuse(t *testing.T) {
	k := kernel.New()
	capacity := kernel.DefaultMaxThreads - 1

	ids := addThreads(t, k, capacity)
	for i, id := range ids {
		if id != kernel.ThreadID(i+1) {
			t.Fatalf("expected sequential id %d, got %d", i+1, id)
		}
	}

	if _, err := k.AddThread(noopEntry, nil, 0, nil); err != kernel.ErrNoFreeSlot {
		t.Fatalf("expected ErrNoFreeSlot once the table is full, got %v", err)
	}

	victim := ids[2]
	if err := k.Kill(victim); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	id, err := k.AddThread(noopEntry, nil, 0, nil)
	if err != nil {
		t.Fatalf("AddThread after Kill: %v", err)
	}
	if id != victim {
		t.Fatalf("expected the freed slot %d reused, got %d", victim, id)
	}
}

// TestWaitTimesOutOnStillRunningThread exercises Wait's timeout path.
// With no Dispatcher installed, Yield is a no-op, so Wait's retry loop
// spins on Millis alone; a background goroutine stands in for the tick
// ISR that would normally advance it.
func TestWaitTimesOutOnStillRunningThread(t *testing.T) {
	k := kernel.New()
	ids := addThreads(t, k, 1)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.AdvanceMillis(1)
			case <-done:
				return
			}
		}
	}()

	_, err := k.Wait(ids[0], 5)
	if err != kernel.ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestWaitReturnsOnceThreadEnds(t *testing.T) {
	k := kernel.New()
	ids := addThreads(t, k, 1)

	if err := k.Kill(ids[0]); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	id, err := k.Wait(ids[0], 0)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if id != ids[0] {
		t.Fatalf("expected %d, got %d", ids[0], id)
	}
}

func TestGetStackUsedAndRemaining(t *testing.T) {
	k := kernel.New()
	ids := addThreads(t, k, 1)
	id := ids[0]

	used, err := k.GetStackUsed(id)
	if err != nil {
		t.Fatalf("GetStackUsed: %v", err)
	}
	remaining, err := k.GetStackRemaining(id)
	if err != nil {
		t.Fatalf("GetStackRemaining: %v", err)
	}
	if used <= 0 {
		t.Errorf("expected positive stack usage for a freshly bootstrapped frame, got %d", used)
	}
	if remaining < 0 {
		t.Errorf("expected non-negative remaining stack, got %d", remaining)
	}
}
