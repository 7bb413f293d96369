package config

import "corertos.dev/corertos/kernel"

// Apply pushes a Config's tunables onto a live Kernel. MaxThreads is
// not applied here: the thread table's capacity is a compile-time
// array size (spec.md §3), not a runtime setting.
func Apply(k *kernel.Kernel, c Config) error {
	if c.DefaultStackSize > 0 {
		k.SetDefaultStackSize(uintptr(c.DefaultStackSize))
	}
	if c.DefaultTicks > 0 {
		k.SetDefaultTimeSlice(c.DefaultTicks)
	}
	k.StrictPriorityScan = c.StrictPriorityScan

	if c.TickSource == TickSourceMicro {
		if c.SliceMicros == 0 {
			return kernel.ErrTimerBusy
		}
		if !k.SetSliceMicros(c.SliceMicros) {
			return kernel.ErrTimerBusy
		}
	}
	return nil
}
