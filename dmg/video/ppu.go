// Package video implements the PPU mode state machine and a background
// layer scanline renderer. Window and sprite compositing are out of scope.
package video

import (
	"sync/atomic"

	"github.com/pixelforge/dmgcore/dmg/addr"
)

// Mode is one of the four PPU states, numbered to match STAT bits 0-1.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	VRAMScan
)

// Machine-cycle durations of each mode within a 114-cycle scanline.
const (
	oamScanCycles = 20
	vramCycles    = 43
	hBlankCycles  = 51
	scanlineCycles = oamScanCycles + vramCycles + hBlankCycles // 114
	visibleLines   = 144
	totalLines     = 154 // 144 visible + 10 VBlank lines
)

// FramebufferWidth/Height are exposed so backends can size their output
// without hardcoding the resolution twice.
const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	bytesPerRow       = FramebufferWidth / 4 // 2bpp packed, 4 pixels/byte
)

// PPU holds VRAM, OAM, the eleven display registers, and the packed 2bpp
// framebuffer the background renderer writes into.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat, scy, scx, ly, lyc, bgp, obp0, obp1, wy, wx byte

	mode      Mode
	modeClock int

	statLine bool // last computed STAT interrupt condition, for edge detection
	lycLine  bool

	// Double-buffered: renderScanline always writes into buffers[writeIdx]
	// (the back buffer); Framebuffer() always reads buffers[readIdx] (the
	// published buffer). The two swap on the HBlank->VBlank transition, the
	// only point a full frame is guaranteed complete.
	buffers [2][bytesPerRow * FramebufferHeight]byte
	writeIdx int
	readIdx  atomic.Int32

	requestInterrupt func(addr.Interrupt)
}

func New(requestInterrupt func(addr.Interrupt)) *PPU {
	p := &PPU{requestInterrupt: requestInterrupt}
	p.lcdc = 0x91
	p.bgp = 0xFC
	p.mode = OAMScan
	return p
}

func (p *PPU) lcdEnabled() bool { return p.lcdc&0x80 != 0 }

// Tick advances the PPU by exactly one machine cycle. Call once per
// CPU machine cycle, same as the timer.
func (p *PPU) Tick() {
	if !p.lcdEnabled() {
		return
	}

	p.modeClock++

	switch p.mode {
	case OAMScan:
		if p.modeClock >= oamScanCycles {
			p.modeClock = 0
			p.setMode(VRAMScan)
		}
	case VRAMScan:
		if p.modeClock >= vramCycles {
			p.modeClock = 0
			p.setMode(HBlank)
			p.renderScanline()
		}
	case HBlank:
		if p.modeClock >= hBlankCycles {
			p.modeClock = 0
			p.ly++
			p.checkLYC()
			if p.ly >= visibleLines {
				p.setMode(VBlank)
				p.publishFrame()
				p.requestInterrupt(addr.VBlankInterrupt)
			} else {
				p.setMode(OAMScan)
			}
		}
	case VBlank:
		if p.modeClock >= scanlineCycles {
			p.modeClock = 0
			p.ly++
			if p.ly >= totalLines {
				p.ly = 0
				p.setMode(OAMScan)
			}
			p.checkLYC()
		}
	}

	p.updateStatLine()
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
}

func (p *PPU) checkLYC() {
	coincidence := p.ly == p.lyc
	if coincidence && !p.lycLine && p.stat&0x40 != 0 {
		p.requestInterrupt(addr.LCDSTATInterrupt)
	}
	p.lycLine = coincidence
}

// updateStatLine re-evaluates the OR of every STAT interrupt source and
// fires on a 0->1 transition of that combined line, matching real
// hardware's single shared STAT IRQ line.
func (p *PPU) updateStatLine() {
	line := false
	switch p.mode {
	case HBlank:
		line = p.stat&0x08 != 0
	case VBlank:
		line = p.stat&0x10 != 0
	case OAMScan:
		line = p.stat&0x20 != 0
	}
	if line && !p.statLine {
		p.requestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

// --- MMIO surface -----------------------------------------------------

func (p *PPU) ReadVRAM(a uint16) byte {
	if p.mode == VRAMScan && p.lcdEnabled() {
		return 0xFF
	}
	return p.vram[a-0x8000]
}

func (p *PPU) WriteVRAM(a uint16, v byte) {
	if p.mode == VRAMScan && p.lcdEnabled() {
		return
	}
	p.vram[a-0x8000] = v
}

func (p *PPU) ReadOAM(a uint16) byte {
	if (p.mode == VRAMScan || p.mode == OAMScan) && p.lcdEnabled() {
		return 0xFF
	}
	return p.oam[a-0xFE00]
}

func (p *PPU) WriteOAM(a uint16, v byte) {
	if (p.mode == VRAMScan || p.mode == OAMScan) && p.lcdEnabled() {
		return
	}
	p.oam[a-0xFE00] = v
}

// WriteOAMRaw bypasses the mode gate; used by OAM DMA, which writes OAM
// regardless of what the PPU is doing.
func (p *PPU) WriteOAMRaw(index uint8, v byte) { p.oam[index] = v }

func (p *PPU) ReadLCDC() byte { return p.lcdc }
func (p *PPU) WriteLCDC(v byte) {
	wasEnabled := p.lcdEnabled()
	p.lcdc = v
	if wasEnabled && !p.lcdEnabled() {
		p.mode = HBlank
		p.modeClock = 0
		p.ly = 0
	}
}

func (p *PPU) ReadSTAT() byte {
	return 0x80 | p.stat&0x78 | boolBit(p.ly == p.lyc, 0x04) | byte(p.mode)
}
func (p *PPU) WriteSTAT(v byte) { p.stat = v & 0x78 }

func (p *PPU) ReadSCY() byte    { return p.scy }
func (p *PPU) WriteSCY(v byte)  { p.scy = v }
func (p *PPU) ReadSCX() byte    { return p.scx }
func (p *PPU) WriteSCX(v byte)  { p.scx = v }
func (p *PPU) ReadLY() byte     { return p.ly }
func (p *PPU) ReadLYC() byte    { return p.lyc }
func (p *PPU) WriteLYC(v byte)  { p.lyc = v }
func (p *PPU) ReadBGP() byte    { return p.bgp }
func (p *PPU) WriteBGP(v byte)  { p.bgp = v }
func (p *PPU) ReadOBP0() byte   { return p.obp0 }
func (p *PPU) WriteOBP0(v byte) { p.obp0 = v }
func (p *PPU) ReadOBP1() byte   { return p.obp1 }
func (p *PPU) WriteOBP1(v byte) { p.obp1 = v }
func (p *PPU) ReadWY() byte     { return p.wy }
func (p *PPU) WriteWY(v byte)   { p.wy = v }
func (p *PPU) ReadWX() byte     { return p.wx }
func (p *PPU) WriteWX(v byte)   { p.wx = v }

// PinLY lets a test harness force LY to a fixed value (e.g. Blargg ROMs
// that poll for LY==144 to detect VBlank without enabling interrupts).
func (p *PPU) PinLY(v byte) { p.ly = v }

func boolBit(cond bool, bit byte) byte {
	if cond {
		return bit
	}
	return 0
}

// Framebuffer returns the most recently published packed 2bpp background
// framebuffer: 40 bytes per row (4 pixels/byte, 2 bits/pixel, MSB-first),
// 144 rows. Safe to call concurrently with rendering — it only ever reads
// the buffer the render side has stopped writing to.
func (p *PPU) Framebuffer() []byte {
	return p.buffers[p.readIdx.Load()][:]
}

// publishFrame swaps the just-completed back buffer into view and clears
// the new back buffer, matching the atomic-pointer-swap publication model
// spec'd for the VBlank transition; Tick calls it on the HBlank->VBlank edge.
func (p *PPU) publishFrame() {
	p.readIdx.Store(int32(p.writeIdx))
	p.writeIdx = 1 - p.writeIdx
	p.buffers[p.writeIdx] = [bytesPerRow * FramebufferHeight]byte{}
}

// renderScanline fills framebuffer row p.ly from the background tile map,
// respecting SCX/SCY wraparound and the LCDC tile-data/tile-map selects.
func (p *PPU) renderScanline() {
	if p.ly >= visibleLines {
		return
	}
	if p.lcdc&0x01 == 0 {
		p.clearRow(p.ly)
		return
	}

	mapBase := addr.TileMap0
	if p.lcdc&0x08 != 0 {
		mapBase = addr.TileMap1
	}
	unsignedTiles := p.lcdc&0x10 != 0

	y := (uint16(p.ly) + uint16(p.scy)) & 0xFF
	tileRow := y / 8
	rowInTile := y % 8

	for x := uint16(0); x < FramebufferWidth; x++ {
		screenX := (x + uint16(p.scx)) & 0xFF
		tileCol := screenX / 8
		colInTile := screenX % 8

		tileMapAddr := mapBase + tileRow*32 + tileCol
		tileIndex := p.vram[tileMapAddr-0x8000]

		var tileDataAddr uint16
		if unsignedTiles {
			tileDataAddr = addr.TileData0 + uint16(tileIndex)*16
		} else {
			tileDataAddr = uint16(int32(addr.TileData1) + 0x800 + int32(int8(tileIndex))*16)
		}
		rowAddr := tileDataAddr + rowInTile*2
		lo := p.vram[rowAddr-0x8000]
		hi := p.vram[rowAddr+1-0x8000]

		bit := 7 - colInTile
		colorIndex := (hi>>bit)&1<<1 | (lo>>bit)&1
		shade := (p.bgp >> (colorIndex * 2)) & 0x03

		p.setPixel(p.ly, uint8(x), shade)
	}
}

func (p *PPU) setPixel(row uint8, x uint8, shade byte) {
	rowOffset := int(row) * bytesPerRow
	byteIndex := rowOffset + int(x)/4
	shift := (3 - (x % 4)) * 2
	mask := byte(0x03) << shift
	buf := &p.buffers[p.writeIdx]
	buf[byteIndex] = buf[byteIndex]&^mask | (shade<<shift)&mask
}

func (p *PPU) clearRow(row uint8) {
	rowOffset := int(row) * bytesPerRow
	buf := &p.buffers[p.writeIdx]
	for i := 0; i < bytesPerRow; i++ {
		buf[rowOffset+i] = 0
	}
}

// --- save-state surface -------------------------------------------------
//
// These expose internal layout (VRAM/OAM contents, mode clock, both
// framebuffer halves, every MMIO register) that the rest of the package
// never needs as named getters/setters — only the save-state framer, which
// treats the PPU as an external collaborator through this surface rather
// than reaching into its fields directly.

func (p *PPU) VRAMBytes() [0x2000]byte     { return p.vram }
func (p *PPU) SetVRAMBytes(v [0x2000]byte) { p.vram = v }
func (p *PPU) OAMBytes() [0xA0]byte        { return p.oam }
func (p *PPU) SetOAMBytes(v [0xA0]byte)    { p.oam = v }

func (p *PPU) ModeClock() int     { return p.modeClock }
func (p *PPU) SetModeClock(v int) { p.modeClock = v }
func (p *PPU) ModeRaw() byte      { return byte(p.mode) }
func (p *PPU) SetModeRaw(v byte)  { p.mode = Mode(v) }

func (p *PPU) StatLine() bool     { return p.statLine }
func (p *PPU) SetStatLine(v bool) { p.statLine = v }
func (p *PPU) LYCLine() bool      { return p.lycLine }
func (p *PPU) SetLYCLine(v bool)  { p.lycLine = v }

// FramebufferHalves/SetFramebufferHalves and WriteIndex/SetWriteIndex/
// ReadIndex/SetReadIndex expose both buffer halves and the swap state, so a
// restored save resumes mid-scanline exactly where it left off rather than
// just from the last published frame.
func (p *PPU) FramebufferHalves() [2][bytesPerRow * FramebufferHeight]byte {
	return p.buffers
}
func (p *PPU) SetFramebufferHalves(v [2][bytesPerRow * FramebufferHeight]byte) {
	p.buffers = v
}
func (p *PPU) WriteIndex() int      { return p.writeIdx }
func (p *PPU) SetWriteIndex(v int)  { p.writeIdx = v }
func (p *PPU) ReadIndex() int32     { return p.readIdx.Load() }
func (p *PPU) SetReadIndex(v int32) { p.readIdx.Store(v) }

// RegisterBlock/SetRegisterBlock round-trips every MMIO register as a fixed
// 11-byte block: lcdc, stat, scy, scx, ly, lyc, bgp, obp0, obp1, wy, wx.
func (p *PPU) RegisterBlock() [11]byte {
	return [11]byte{p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx}
}
func (p *PPU) SetRegisterBlock(v [11]byte) {
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx =
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8], v[9], v[10]
}
