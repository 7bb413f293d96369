// Package diag reports scheduling-latency jitter statistics gathered
// from a kernel/simhost run. It reuses gonum.org/v1/gonum, the
// teacher's graph-analysis dependency, for its stat package instead —
// the teacher only imports gonum's graph subpackage (for the deleted
// SSA compiler's dominance analysis), but the module's stat package is
// exactly the descriptive-statistics tool a scheduling-jitter report
// needs, and pulling it in adds no new dependency to go.mod.
package diag

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one recorded dispatch from a yield or a thread's exit: the
// thread dispatched to, and how many nanoseconds elapsed from the start
// of the scheduling decision until the token was handed to that
// thread's goroutine.
type Sample struct {
	ThreadID  int32
	LatencyNs float64
}

// Report summarizes a batch of dispatch-latency samples.
type Report struct {
	Count    int
	MeanNs   float64
	StdDevNs float64
	P50Ns    float64
	P99Ns    float64
	MaxNs    float64
}

// Summarize computes descriptive statistics over samples' latencies.
// An empty input yields a zero Report.
func Summarize(samples []Sample) Report {
	if len(samples) == 0 {
		return Report{}
	}

	latencies := make([]float64, len(samples))
	for i, s := range samples {
		latencies[i] = s.LatencyNs
	}
	sort.Float64s(latencies)

	mean, std := stat.MeanStdDev(latencies, nil)
	return Report{
		Count:    len(latencies),
		MeanNs:   mean,
		StdDevNs: std,
		P50Ns:    stat.Quantile(0.50, stat.Empirical, latencies, nil),
		P99Ns:    stat.Quantile(0.99, stat.Empirical, latencies, nil),
		MaxNs:    latencies[len(latencies)-1],
	}
}

// String renders the report the way corertosctl bench prints it.
func (r Report) String() string {
	return fmt.Sprintf(
		"n=%d mean=%.0fns stddev=%.0fns p50=%.0fns p99=%.0fns max=%.0fns",
		r.Count, r.MeanNs, r.StdDevNs, r.P50Ns, r.P99Ns, r.MaxNs,
	)
}
