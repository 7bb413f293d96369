package simhost

import (
	"time"

	"corertos.dev/corertos/kernel"
)

// FireSysTick simulates one system tick interrupt firing while the
// calling goroutine is the one currently executing (spec.md §4.4): it
// advances the millisecond counter and, if the system tick is the
// active source and scheduling is not stopped, consumes one tick
// against the current thread's slice. Most calls just decrement that
// countdown and return without any goroutine handoff; only once the
// current thread's slice is exhausted does OnSysTick actually
// reselect, and only then does FireSysTick perform the same goroutine
// handoff Switch does. This is the "fixed tick driver" the end-to-end
// scenarios drive themselves with, standing in for a real SysTick ISR
// asynchronously interrupting whatever the CPU was doing — a hosted Go
// process has no safe way to interrupt another goroutine's arbitrary
// point of execution, so ticks are only ever fired by whichever
// goroutine currently holds control.
func (r *Runner) FireSysTick() {
	from := r.k.CurrentID()
	_, ok := r.k.OnSysTick(0)
	if !ok {
		return
	}
	to := r.k.CurrentID()
	if to == from {
		return
	}
	r.tokenFor(to) <- struct{}{}
	<-r.tokenFor(from)
}

// FireIntervalTick is FireSysTick's counterpart for the programmable
// microsecond timer path (OnIntervalTick): it also only performs a
// goroutine handoff once the current thread's slice is exhausted.
func (r *Runner) FireIntervalTick() {
	from := r.k.CurrentID()
	_, ok := r.k.OnIntervalTick(0)
	if !ok {
		return
	}
	to := r.k.CurrentID()
	if to == from {
		return
	}
	r.tokenFor(to) <- struct{}{}
	<-r.tokenFor(from)
}

// FakeIntervalTimer is a manually-fired kernel.IntervalTimer for
// deterministic scenario tests: nothing calls fire on its own, a test
// calls Fire itself at the exact points the scenario needs a tick to
// have happened.
type FakeIntervalTimer struct {
	fire  func()
	armed bool
}

func (t *FakeIntervalTimer) Arm(_ uint32, fire func()) bool {
	t.fire = fire
	t.armed = true
	return true
}

func (t *FakeIntervalTimer) Disarm() {
	t.armed = false
	t.fire = nil
}

// Fire invokes the armed callback, if any. It is a no-op after Disarm.
func (t *FakeIntervalTimer) Fire() {
	if t.armed && t.fire != nil {
		t.fire()
	}
}

// TickerIntervalTimer backs kernel.IntervalTimer with a real
// time.Ticker, for callers that want wall-clock-paced ticking rather
// than test-driven determinism. The corertosctl subcommands do not use
// it; they fire ticks themselves with FireSysTick.
type TickerIntervalTimer struct {
	ticker *time.Ticker
	stop   chan struct{}
}

func (t *TickerIntervalTimer) Arm(us uint32, fire func()) bool {
	if us == 0 {
		return false
	}
	t.ticker = time.NewTicker(time.Duration(us) * time.Microsecond)
	t.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-t.ticker.C:
				fire()
			case <-t.stop:
				return
			}
		}
	}()
	return true
}

func (t *TickerIntervalTimer) Disarm() {
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.stop)
		t.ticker = nil
	}
}

// SysTickDriver periodically calls FireSysTick at a fixed wall-clock
// rate, standing in for the real SysTick peripheral counting down a
// hardware clock divisor. Scenario tests and the corertosctl
// subcommands call FireSysTick directly instead.
type SysTickDriver struct {
	r      *Runner
	ticker *time.Ticker
	stop   chan struct{}
}

// NewSysTickDriver starts firing system ticks every period against r's
// kernel until Stop is called. Firing ticks from a separate goroutine
// this way is best-effort: unlike a real SysTick exception it cannot
// actually interrupt a simulated thread's goroutine mid-instruction, so
// a thread that never reaches a cooperative suspension point delays the
// next tick's handoff rather than being preempted. Scenario tests use
// FireSysTick directly instead, exactly when they want it to happen.
func NewSysTickDriver(r *Runner, period time.Duration) *SysTickDriver {
	d := &SysTickDriver{r: r, ticker: time.NewTicker(period), stop: make(chan struct{})}
	go d.loop()
	return d
}

func (d *SysTickDriver) loop() {
	for {
		select {
		case <-d.ticker.C:
			d.r.FireSysTick()
		case <-d.stop:
			return
		}
	}
}

// Stop halts the driver's goroutine.
func (d *SysTickDriver) Stop() {
	d.ticker.Stop()
	close(d.stop)
}

var _ kernel.IntervalTimer = (*FakeIntervalTimer)(nil)
var _ kernel.IntervalTimer = (*TickerIntervalTimer)(nil)
