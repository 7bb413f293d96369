// Package simhost stands in for the ARM-specific assembly context-switch
// trampoline spec.md §6 explicitly puts out of scope. It implements the
// trampoline's contract — consult the scheduler, dispatch whatever thread
// it selects — with one goroutine per simulated thread and a token channel
// per goroutine instead of a real register save/restore, so the policy in
// package kernel is exercised end to end without hardware.
//
// Only one simulated thread's goroutine ever holds its token at a time,
// modeling the single-core constraint spec.md §1 assumes throughout.
package simhost

import (
	"context"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"corertos.dev/corertos/kernel"
)

// Runner drives a *kernel.Kernel on the host: it implements
// kernel.Dispatcher so Yield/YieldAndStart work, and it owns the
// goroutine pool backing every thread AddThread creates through it.
type Runner struct {
	k *kernel.Kernel

	mu     sync.Mutex
	tokens map[kernel.ThreadID]chan struct{}

	group *errgroup.Group

	// onDispatch, if set, is called every time Switch/dispatchAfterExit
	// actually hands the token to a different thread, with the id it
	// dispatched to and how long the handoff took to complete. kernel/diag
	// uses this to collect scheduling-latency samples.
	onDispatch func(to kernel.ThreadID, latency time.Duration)
}

// OnDispatch installs a callback invoked after every handoff made by
// Switch or by a thread's exit. Handoffs made by FireSysTick and
// FireIntervalTick are not reported. Pass nil to remove it.
func (r *Runner) OnDispatch(fn func(to kernel.ThreadID, latency time.Duration)) {
	r.mu.Lock()
	r.onDispatch = fn
	r.mu.Unlock()
}

func (r *Runner) reportDispatch(to kernel.ThreadID, start time.Time) {
	r.mu.Lock()
	fn := r.onDispatch
	r.mu.Unlock()
	if fn != nil {
		fn(to, time.Since(start))
	}
}

// New wires a Runner into k as its Dispatcher and returns it. The
// caller's own goroutine plays the role of thread 0 (the main
// context) — there is no separate goroutine for it.
func New(k *kernel.Kernel) *Runner {
	group, _ := errgroup.WithContext(context.Background())
	r := &Runner{k: k, tokens: map[kernel.ThreadID]chan struct{}{}, group: group}
	k.SetDispatcher(r)
	return r
}

func (r *Runner) tokenFor(id kernel.ThreadID) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		t = make(chan struct{}, 1)
		r.tokens[id] = t
	}
	return t
}

// Spawn creates a thread via k.AddThread and backs it with a goroutine
// that blocks until the scheduler first dispatches it, then runs fn to
// completion, terminates the thread, and hands off to whatever the
// scheduler picks next.
func (r *Runner) Spawn(fn kernel.ThreadFunc, arg unsafe.Pointer, stackSize uintptr) (kernel.ThreadID, error) {
	id, err := r.k.AddThread(fn, arg, stackSize, nil)
	if err != nil {
		return kernel.InvalidThreadID, err
	}

	tok := r.tokenFor(id)
	r.group.Go(func() error {
		<-tok
		fn(arg)
		_ = r.k.Terminate(id)
		r.dispatchAfterExit()
		return nil
	})
	return id, nil
}

// Switch implements kernel.Dispatcher. It is called from inside the
// currently running simulated thread's own goroutine (or from the
// caller's goroutine playing thread 0): it asks the scheduler who runs
// next, and if that differs from the caller, releases the chosen
// thread's token and blocks on its own until it is handed the token
// back.
func (r *Runner) Switch() {
	start := time.Now()
	from := r.k.CurrentID()
	r.k.Next(0)
	to := r.k.CurrentID()
	if to == from {
		return
	}
	r.tokenFor(to) <- struct{}{}
	r.reportDispatch(to, start)
	<-r.tokenFor(from)
}

// dispatchAfterExit hands off to the scheduler's next pick without
// waiting to be resumed, since the calling goroutine is about to end —
// unlike Switch, it must not block on its own token.
func (r *Runner) dispatchAfterExit() {
	start := time.Now()
	r.k.Next(0)
	to := r.k.CurrentID()
	r.tokenFor(to) <- struct{}{}
	r.reportDispatch(to, start)
}

// Wait blocks until every spawned thread's goroutine has returned. A
// scenario that suspends or leaks a thread without ever letting it run
// to completion will hang here — callers such as tests should Kill and
// dispatch away from any thread they intentionally leave unfinished
// before calling Wait.
func (r *Runner) Wait() error {
	return r.group.Wait()
}
