package kernel

import "unsafe"

// ptrFromUintptr and uintptrFromPtr convert between the CPU-register
// view of a stack pointer (a bare address, as an ISR would hand it to
// the scheduler) and Go's unsafe.Pointer. This is the narrow "unsafe"
// boundary spec.md §9 calls for around the raw-address parts of the
// kernel; everything above this file operates on opaque values.
func ptrFromUintptr(addr uintptr) unsafe.Pointer {
	if addr == 0 {
		return nil
	}
	return unsafe.Pointer(addr) //nolint:govet // intentional address<->pointer boundary
}

func uintptrFromPtr(p unsafe.Pointer) uintptr {
	return uintptr(p)
}
