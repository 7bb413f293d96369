package diag

import (
	"sync"
	"time"

	"corertos.dev/corertos/kernel"
	"corertos.dev/corertos/kernel/simhost"
)

// Collector accumulates dispatch-latency Samples from a simhost.Runner
// for later Summarize-ing.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
}

// Attach registers the collector on r via Runner.OnDispatch.
func Attach(r *simhost.Runner) *Collector {
	c := &Collector{}
	r.OnDispatch(func(to kernel.ThreadID, latency time.Duration) {
		c.mu.Lock()
		c.samples = append(c.samples, Sample{ThreadID: int32(to), LatencyNs: float64(latency.Nanoseconds())})
		c.mu.Unlock()
	})
	return c
}

// Report summarizes everything collected so far.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summarize(c.samples)
}
