package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge/dmgcore/dmg/addr"
)

func TestMMUIFTopBitsAlwaysReadOne(t *testing.T) {
	m := New()
	m.Write(addr.IF, 0x01)
	assert.Equal(t, byte(0xE1), m.Read(addr.IF))
}

func TestMMUWRAMEchoMirrorsWRAM(t *testing.T) {
	m := New()
	m.Write(0xC010, 0x42)
	assert.Equal(t, byte(0x42), m.Read(0xE010), "echo region should mirror WRAM")

	m.Write(0xE020, 0x99)
	assert.Equal(t, byte(0x99), m.Read(0xC020), "writes through the echo region should land in WRAM")
}

func TestMMUHRAMAlwaysAccessible(t *testing.T) {
	m := New()
	m.Write(0xFF85, 0x7E)
	assert.Equal(t, byte(0x7E), m.Read(0xFF85))
}

func TestMMUOAMDMABlocksBusExceptHRAM(t *testing.T) {
	m := New()
	m.Write(addr.LCDC, 0x00) // disable the LCD so PPU mode gating can't mask the OAM readback below

	m.Write(0xC000, 0xAB) // seed a source byte the DMA will copy
	m.Write(0xFF80, 0x11) // HRAM byte, must stay reachable throughout

	m.Write(addr.DMA, 0xC0) // source = 0xC000

	require.True(t, m.dmaActive, "writing DMA register should start a transfer")

	// During the transfer, everything but HRAM/IE reads back 0xFF.
	assert.Equal(t, byte(0xFF), m.Read(0xC001))
	assert.Equal(t, byte(0x11), m.Read(0xFF80))

	m.Write(addr.IE, 0x1F)
	assert.Equal(t, byte(0x1F), m.Read(addr.IE), "IE register must stay reachable during DMA")

	for i := 0; i < dmaLength; i++ {
		m.Tick()
	}

	require.False(t, m.dmaActive, "transfer should be complete after dmaLength machine cycles")
	assert.Equal(t, byte(0xAB), m.ppu.ReadOAM(0xFE00), "first OAM byte should match the source byte")
}

func TestMMUCartridgeDispatch(t *testing.T) {
	m := New()
	rom := make([]byte, 0x8000)
	rom[0x0147] = 0x00 // ROM only
	rom[0x0149] = 0x00
	ok, err := m.LoadROM(rom)
	require.True(t, ok)
	require.NoError(t, err)

	m.Write(0x0000, 0xEE) // write to ROM region is a no-op for mbc0
	assert.Equal(t, byte(0x00), m.Read(0x0000))
}

func TestMMUVRAMRoundTrip(t *testing.T) {
	m := New()
	m.Write(0x8000, 0x3C)
	assert.Equal(t, byte(0x3C), m.Read(0x8000))
}
