// Package kernel implements the core of a preemptive, cooperative-capable
// multitasking kernel for a single-core ARM Cortex-M microcontroller:
// a fixed-capacity thread table, a round-robin-with-priority-boost
// scheduler, stack bootstrap for freshly created threads, a
// critical-section guard, and a blocking mutex.
//
// The actual register save/restore across an interrupt boundary is an
// external assembly routine (see the ABI contract documented on
// Kernel.Trampoline and package kernel/arch/cortexm); this package only
// decides *which* thread runs next and prepares the state that
// routine consumes.
package kernel
