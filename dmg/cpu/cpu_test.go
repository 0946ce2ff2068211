package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a flat 64KiB RAM used to unit-test the CPU in isolation from
// the real MMU dispatch table.
type fakeBus struct {
	mem [65536]byte
}

func (f *fakeBus) Read(addr uint16) byte       { return f.mem[addr] }
func (f *fakeBus) Write(addr uint16, v byte)   { f.mem[addr] = v }

func newTestCPU(program ...byte) (*CPU, *fakeBus) {
	b := &fakeBus{}
	copy(b.mem[0x0100:], program)
	return New(b), b
}

func runCycles(c *CPU, b Bus, n int) {
	for i := 0; i < n; i++ {
		c.Cycle(b)
	}
}

func TestResetState(t *testing.T) {
	c, b := newTestCPU(0x00)
	assert.Equal(t, uint8(0x01), c.A)
	assert.Equal(t, uint16(0x0101), c.PC)
	assert.Equal(t, uint16(0xFFFE), c.SP)
	assert.False(t, c.IME)
	assert.Equal(t, uint8(0xE1), b.Read(0xFF0F))
}

func TestFlagRegisterLowNibbleAlwaysZero(t *testing.T) {
	c, _ := newTestCPU()
	c.F = 0xFF
	c.setFlag(flagZ, true)
	assert.Equal(t, uint8(0x00), c.F&0x0F)
}

func TestLdRR(t *testing.T) {
	// LD B,C ; next opcode NOP
	c, b := newTestCPU(0x41, 0x00)
	c.C = 0x42
	c.Cycle(b) // executes LD B,C and fetches NOP
	assert.Equal(t, uint8(0x42), c.B)
	assert.Equal(t, uint16(0x0102), c.PC)
}

func TestIncDecFlags(t *testing.T) {
	c, b := newTestCPU(0x3C, 0x00) // INC A
	c.A = 0xFF
	c.Cycle(b)
	assert.Equal(t, uint8(0x00), c.A)
	assert.True(t, c.flag(flagZ))
	assert.True(t, c.flag(flagH))
	assert.False(t, c.flag(flagN))
}

func TestLdHLImmediateTakesThreeCycles(t *testing.T) {
	// LD (HL),n ; n=0x99
	c, b := newTestCPU(0x36, 0x99, 0x00)
	c.SetHL(0xC000)
	runCycles(c, b, 3)
	assert.Equal(t, uint8(0x99), b.Read(0xC000))
}

func TestPushPopRoundTrip(t *testing.T) {
	// PUSH BC ; POP DE
	c, b := newTestCPU(0xC5, 0xD1, 0x00)
	c.SetBC(0xBEEF)
	c.SP = 0xD000
	runCycles(c, b, 4) // PUSH BC
	assert.Equal(t, uint16(0xCFFE), c.SP)
	runCycles(c, b, 3) // POP DE
	assert.Equal(t, uint16(0xBEEF), c.DE())
	assert.Equal(t, uint16(0xD000), c.SP)
}

func TestPopAFMasksLowNibble(t *testing.T) {
	// PUSH BC (BC=0x1234, low nibble 4 would leak into flags) ; POP AF
	c, b := newTestCPU(0xC5, 0xF1, 0x00)
	c.SetBC(0x1234)
	c.SP = 0xD000
	runCycles(c, b, 4)
	runCycles(c, b, 3)
	assert.Equal(t, uint8(0x12), c.A)
	assert.Equal(t, uint8(0x30), c.F)
}

func TestEIDelaysOneInstruction(t *testing.T) {
	// EI ; NOP ; NOP
	c, b := newTestCPU(0xFB, 0x00, 0x00)
	c.Cycle(b) // executes EI, fetches first NOP
	assert.False(t, c.IME, "IME must not be set during the EI instruction itself")
	c.Cycle(b) // executes the NOP right after EI, fetches second NOP
	assert.True(t, c.IME, "IME becomes set only once the instruction after EI completes")
}

func TestHaltSuspendsUntilInterruptPending(t *testing.T) {
	c, b := newTestCPU(0x76, 0x00) // HALT ; NOP
	c.Cycle(b)
	require.True(t, c.Halted)

	c.Cycle(b) // no pending interrupt: stays halted, PC does not move
	assert.True(t, c.Halted)
	assert.Equal(t, uint16(0x0101), c.PC)

	b.Write(0xFFFF, 0x01) // IE: VBlank enabled
	b.Write(0xFF0F, 0x01) // IF: VBlank pending
	c.Cycle(b)
	assert.False(t, c.Halted)
}

func TestInterruptDispatchPushesReturnAddressAndClearsIF(t *testing.T) {
	c, b := newTestCPU(0x00, 0x00) // NOP ; NOP
	c.IME = true
	c.SP = 0xD000
	b.Write(0xFFFF, 0x01) // IE: VBlank
	b.Write(0xFF0F, 0x01) // IF: VBlank pending

	c.Cycle(b) // executes NOP at 0x0100, fetch-overlap hijacks IR to the VBlank ISR slot
	assert.Equal(t, isrVBlank, c.IR)
	assert.False(t, c.IME)
	assert.Equal(t, uint8(0x00), b.Read(0xFF0F)&0x01)

	runCycles(c, b, 5) // five-cycle ISR microprogram
	// the last ISR cycle loads the vector and fetches its first opcode, so
	// PC ends one past 0x40.
	assert.Equal(t, uint16(0x41), c.PC)
	assert.Equal(t, uint16(0xCFFE), c.SP)
	// the speculatively fetched (but discarded) opcode at 0x0101 is the
	// correct resume point, so PC-- undoes the fetch-overlap's increment
	// before the return address is pushed.
	assert.Equal(t, uint8(0x01), b.Read(0xCFFE))
	assert.Equal(t, uint8(0x01), b.Read(0xCFFF))
}

func TestJrConditionalCycleCounts(t *testing.T) {
	// JR Z,+2 (not taken, Z clear) ; NOP ; NOP ; NOP
	c, b := newTestCPU(0x28, 0x02, 0x00, 0x00, 0x00)
	c.setFlag(flagZ, false)
	start := c.Cycles()
	c.Cycle(b)
	for c.MUPC != 0 {
		c.Cycle(b)
	}
	assert.Equal(t, uint16(0x0103), c.PC, "not taken: falls through and fetches the opcode at 0x0102")
	assert.Equal(t, uint64(2), c.Cycles()-start)
}

func TestDAAAfterBCDAddition(t *testing.T) {
	// ADD A,0x15 ; DAA, starting from A=0x09 (BCD 09 + 15 = 24)
	c, b := newTestCPU(0xC6, 0x15, 0x27, 0x00)
	c.A = 0x09
	runCycles(c, b, 2) // ADD A,n
	assert.Equal(t, uint8(0x1E), c.A)
	runCycles(c, b, 1) // DAA
	assert.Equal(t, uint8(0x24), c.A)
}
