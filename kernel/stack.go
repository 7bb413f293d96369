package kernel

import (
	"reflect"
	"unsafe"

	"corertos.dev/corertos/kernel/arch/cortexm"
)

// terminationShimEntry is the "application code" address a fresh
// thread's synthetic frame returns into (spec.md §4.3). Its own
// address (via reflect, the closest a hosted Go program can get to
// "the machine code address of this function") is written into the
// frame's LR field purely for introspection/documentation of the ABI
// contract; the host simulation (kernel/simhost) invokes the
// termination path directly rather than by jumping through it, since
// there is no real CPU here to perform an exception return.
func terminationShimEntry(_ unsafe.Pointer) {}

var terminationShimAddr = reflect.ValueOf(terminationShimEntry).Pointer()

// InitStack synthesizes the exact register frame the CPU's
// exception-return mechanism would pop when resuming a fresh thread
// for the first time (spec.md §4.2). base/size describe the stack
// region; the returned sp points at the bottom of the synthetic frame,
// 8-byte aligned per Cortex-M's ABI.
//
// entry's code-entry address (via reflect) is written into the frame's
// PC field for ABI fidelity. Only the frame address is returned; the
// host simulation trampoline, which cannot dispatch through a raw
// machine address the way real hardware would, is handed the function
// value separately (kernel/simhost's Runner.Spawn).
func InitStack(entry ThreadFunc, arg unsafe.Pointer, base unsafe.Pointer, size uintptr) unsafe.Pointer {
	top := unsafe.Add(base, size)
	frameAddr := uintptr(top) - cortexm.FrameSize
	frameAddr -= frameAddr % cortexm.StackAlignment
	// Leave the mandated 8-byte alignment gap between the frame and the
	// top of the stack.
	frameAddr -= cortexm.StackAlignment

	frame := (*cortexm.ExceptionFrame)(unsafe.Pointer(frameAddr))
	frame.R0 = uintptr(arg)
	frame.R1 = 0
	frame.R2 = 0
	frame.R3 = 0
	frame.R12 = 0
	frame.LR = terminationShimAddr
	frame.PC = reflect.ValueOf(entry).Pointer()
	frame.PSR = cortexm.ThumbNoException

	return unsafe.Pointer(frameAddr)
}
