package cpu

// Flag bits live in the high nibble of F; the low nibble always reads zero.
const (
	flagZ uint8 = 1 << 7
	flagN uint8 = 1 << 6
	flagH uint8 = 1 << 5
	flagC uint8 = 1 << 4
)

// Bus is the minimal memory interface the CPU needs. Any type satisfying
// Read/Write can drive the CPU — the concrete implementation lives in the
// memory package, but cpu never imports it, which keeps the dependency
// order (registers -> cpu -> mmu) a one-way street.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// CPU holds the complete SM83 programmer-visible and internal state.
type CPU struct {
	A, F       uint8
	B, C       uint8
	D, E       uint8
	H, L       uint8
	W, Z       uint8 // internal scratch halves of a fetched 16-bit operand
	SP, PC     uint16
	IR         uint16 // bit 8 set => CB-prefixed opcode space
	MUPC       uint8
	IME        bool
	iePending  bool // deferred IME enable, set by EI
	Halted     bool
	cycleCount uint64

	// TraceHook, if set, is called once per genuine instruction boundary
	// (after the fetch-overlap, before the newly latched opcode/ISR runs).
	// It never fires mid-CB-sequence or during a HALT-suspended cycle,
	// since those paths skip finish() entirely.
	TraceHook func(c *CPU, b Bus)
}

// New returns a CPU in its power-on reset state, having already fetched the
// opcode at 0x0100 so the first Cycle call executes it directly.
func New(b Bus) *CPU {
	c := &CPU{}
	c.Reset(b)
	return c
}

// Reset restores the documented DMG power-on register values and primes IR
// with the opcode at 0x0100 (the boot ROM hand-off state), per spec.md 4.1.
func (c *CPU) Reset(b Bus) {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.W, c.Z = 0, 0
	c.SP = 0xFFFE
	c.PC = 0x0101
	c.IR = uint16(b.Read(0x0100))
	c.MUPC = 0
	c.IME = false
	c.iePending = false
	c.Halted = false
	c.cycleCount = 0
	b.Write(0xFF0F, 0xE1)
}

// AF, BC, DE, HL, WZ are big-endian byte-concatenated views over the
// register pairs; A/high is the MSB in each case.
func (c *CPU) AF() uint16 { return combine(c.A, c.F&0xF0) }
func (c *CPU) BC() uint16 { return combine(c.B, c.C) }
func (c *CPU) DE() uint16 { return combine(c.D, c.E) }
func (c *CPU) HL() uint16 { return combine(c.H, c.L) }
func (c *CPU) WZ() uint16 { return combine(c.W, c.Z) }

func (c *CPU) SetAF(v uint16) { c.A, c.F = high(v), low(v)&0xF0 }
func (c *CPU) SetBC(v uint16) { c.B, c.C = high(v), low(v) }
func (c *CPU) SetDE(v uint16) { c.D, c.E = high(v), low(v) }
func (c *CPU) SetHL(v uint16) { c.H, c.L = high(v), low(v) }
func (c *CPU) SetWZ(v uint16) { c.W, c.Z = high(v), low(v) }

func combine(hi, lo uint8) uint16 { return uint16(hi)<<8 | uint16(lo) }
func high(v uint16) uint8         { return uint8(v >> 8) }
func low(v uint16) uint8          { return uint8(v) }

func (c *CPU) flag(mask uint8) bool   { return c.F&mask != 0 }
func (c *CPU) setFlag(mask uint8, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
	c.F &= 0xF0
}

// Cycles reports the number of machine cycles executed so far; used by
// tests and by the host for frame-boundary bookkeeping.
func (c *CPU) Cycles() uint64 { return c.cycleCount }

// GetPC exposes PC for trace/debugger use without encouraging direct
// mutation from outside the package.
func (c *CPU) GetPC() uint16 { return c.PC }
