//go:build tinygo && baremetal

package cortexm

import (
	"sync/atomic"
	"unsafe"
)

// SYST is the SysTick peripheral at its architecturally fixed address.
// Field layout and register semantics follow the ARMv7-M/ARMv8-M
// SysTick specification (register offsets 0xE000E010-0xE000E01C).
//
// No third-party register-definition package is used here: TinyGo's
// own MMIO helper ("volatile") is a compiler builtin, not an
// importable module, and no published Cortex-M SVD-derived package in
// the retrieved examples covers a bare SysTick/SCS/NVIC block without
// pulling in a specific chip family's full peripheral set. sync/atomic
// gives the same "do not reorder or elide this load/store" guarantee a
// dedicated volatile-access package would.
var SYST = (*SysTick)(unsafe.Pointer(uintptr(0xE000E010)))

type SysTick struct {
	CSR   uint32
	RVR   uint32
	CVR   uint32
	CALIB uint32
}

const (
	systCSREnable    = 1 << 0
	systCSRTickInt   = 1 << 1
	systCSRClkSource = 1 << 2
)

func (s *SysTick) SetEnable(enable bool) {
	setBit(&s.CSR, systCSREnable, enable)
}

func (s *SysTick) Enabled() bool {
	return atomic.LoadUint32(&s.CSR)&systCSREnable != 0
}

func (s *SysTick) SetTickInt(enable bool) {
	setBit(&s.CSR, systCSRTickInt, enable)
}

func (s *SysTick) SetClockSource(enable bool) {
	setBit(&s.CSR, systCSRClkSource, enable)
}

func (s *SysTick) SetReload(value uint32) {
	atomic.StoreUint32(&s.RVR, value&0xFFFFFF)
}

func setBit(reg *uint32, mask uint32, set bool) {
	v := atomic.LoadUint32(reg)
	if set {
		v |= mask
	} else {
		v &^= mask
	}
	atomic.StoreUint32(reg, v)
}

// SCS is the System Control Space block, holding the PendSV/SysTick
// priority registers (SHPR3) and interrupt control/state (ICSR) used
// to arm the context-switch path.
var SCS = (*SystemControlSpace)(unsafe.Pointer(uintptr(0xE000ED00)))

type SystemControlSpace struct {
	CPUID uint32
	ICSR  uint32
	VTOR  uint32
	AIRCR uint32
	SCR   uint32
	CCR   uint32
	SHPR1 uint32
	SHPR2 uint32
	SHPR3 uint32
}

const icsrPendSVSet = 1 << 28

// SetPendSV requests (or clears) the PendSV exception, the mechanism a
// real trampoline uses to defer the actual context switch out of the
// SysTick/interval-timer ISR and into its own, lower-priority handler.
func (s *SystemControlSpace) SetPendSV(pending bool) {
	setBit(&s.ICSR, icsrPendSVSet, pending)
}

// SetPendSVPriority and SetSysTickPriority write SHPR3's PRI_14
// (PendSV) and PRI_15 (SysTick) fields. PendSV must sit at the lowest
// priority so it never preempts another interrupt mid-service; SysTick
// sits above PendSV but below anything time-critical.
func (s *SystemControlSpace) SetPendSVPriority(pri uint8) {
	setBytePriority(&s.SHPR3, 2, pri)
}

func (s *SystemControlSpace) SetSysTickPriority(pri uint8) {
	setBytePriority(&s.SHPR3, 3, pri)
}

func setBytePriority(reg *uint32, byteIndex uint, pri uint8) {
	shift := byteIndex * 8
	v := atomic.LoadUint32(reg)
	v &^= 0xFF << shift
	v |= uint32(pri) << shift
	atomic.StoreUint32(reg, v)
}

// NVIC is the Nested Vectored Interrupt Controller, used by
// SetIntervalTimer implementations to arm and prioritize the
// programmable timer interrupt (spec.md §4.4: "at the lowest interrupt
// priority").
var NVIC = (*NVIC_)(unsafe.Pointer(uintptr(0xE000E100)))

type NVIC_ struct {
	ISER [16]uint32
	_    [96]byte
	ICER [16]uint32
	_    [96]byte
	IPRn [124]uint8
}

func (n *NVIC_) EnableIRQ(irq int) {
	atomic.StoreUint32(&n.ISER[irq>>5], 1<<uint(irq&0x1F))
}

func (n *NVIC_) DisableIRQ(irq int) {
	atomic.StoreUint32(&n.ICER[irq>>5], 1<<uint(irq&0x1F))
}

func (n *NVIC_) SetPriority(irq int, pri uint8) {
	n.IPRn[irq] = pri
}

// InitSysTick arms SysTick at the given reload value and puts PendSV
// and SysTick at the priority ordering spec.md §6/§9 require, mirroring
// the teacher's cortexm.initSysTick.
func InitSysTick(reload uint32) {
	SYST.SetEnable(false)
	SCS.SetPendSVPriority(0xFF)
	SCS.SetSysTickPriority(4)
	SYST.SetReload(reload)
	SYST.SetTickInt(true)
	SYST.SetClockSource(true)
	SYST.SetEnable(true)
}
