//go:build !tinygo

package cortexm

// On the host build there is no MMIO to bind to, so SYST/SCS/NVIC are
// modeled as plain in-memory structs with the same field/method shape
// as the baremetal variant (systick_baremetal.go). This mirrors
// QubicOS-Spark/hal's tinygo/!tinygo split: the same call sites
// (InitSysTick, SetPendSV, ...) work unmodified in tests and in the
// corertosctl CLI, only the backing storage differs.
var (
	SYST = &SysTick{}
	SCS  = &SystemControlSpace{}
	NVIC = &NVIC_{}
)

type SysTick struct {
	CSR   uint32
	RVR   uint32
	CVR   uint32
	CALIB uint32
}

func (s *SysTick) SetEnable(enable bool)      { setBitHost(&s.CSR, 1<<0, enable) }
func (s *SysTick) Enabled() bool              { return s.CSR&(1<<0) != 0 }
func (s *SysTick) SetTickInt(enable bool)     { setBitHost(&s.CSR, 1<<1, enable) }
func (s *SysTick) SetClockSource(enable bool) { setBitHost(&s.CSR, 1<<2, enable) }
func (s *SysTick) SetReload(value uint32)     { s.RVR = value & 0xFFFFFF }

func setBitHost(reg *uint32, mask uint32, set bool) {
	if set {
		*reg |= mask
	} else {
		*reg &^= mask
	}
}

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

func (s *SystemControlSpace) SetPendSV(pending bool) { setBitHost(&s.ICSR, 1<<28, pending) }

func (s *SystemControlSpace) SetPendSVPriority(pri uint8)  { setBytePriorityHost(&s.SHPR3, 2, pri) }
func (s *SystemControlSpace) SetSysTickPriority(pri uint8) { setBytePriorityHost(&s.SHPR3, 3, pri) }

func setBytePriorityHost(reg *uint32, byteIndex uint, pri uint8) {
	shift := byteIndex * 8
	*reg &^= 0xFF << shift
	*reg |= uint32(pri) << shift
}

type NVIC_ struct {
	enabled  map[int]bool
	priority map[int]uint8
}

func (n *NVIC_) EnableIRQ(irq int) {
	if n.enabled == nil {
		n.enabled = map[int]bool{}
	}
	n.enabled[irq] = true
}

func (n *NVIC_) DisableIRQ(irq int) {
	if n.enabled != nil {
		delete(n.enabled, irq)
	}
}

func (n *NVIC_) SetPriority(irq int, pri uint8) {
	if n.priority == nil {
		n.priority = map[int]uint8{}
	}
	n.priority[irq] = pri
}

// InitSysTick mirrors the baremetal entry point so kernel/simhost and
// the CLI can call the same setup sequence regardless of build tag.
func InitSysTick(reload uint32) {
	SYST.SetEnable(false)
	SCS.SetPendSVPriority(0xFF)
	SCS.SetSysTickPriority(4)
	SYST.SetReload(reload)
	SYST.SetTickInt(true)
	SYST.SetClockSource(true)
	SYST.SetEnable(true)
}
