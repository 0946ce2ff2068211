package memory

import (
	"fmt"
	"log/slog"

	"github.com/pixelforge/dmgcore/dmg/addr"
	"github.com/pixelforge/dmgcore/dmg/video"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// dmaLength is the number of machine cycles an OAM DMA transfer occupies:
// one source byte copied per cycle, for all 160 OAM bytes.
const dmaLength = 160

// MMU composes every addressable component into the single 0x0000-0xFFFF
// space the CPU sees through the cpu.Bus interface, and drives the OAM DMA
// unit that blocks the rest of the bus while it runs.
type MMU struct {
	cart *Cartridge
	ppu  *video.PPU

	wram   *WRAM
	hram   *HRAM
	timer  *Timer
	joypad *Joypad
	serial *Serial
	apu    *APUStub

	ifReg uint8
	ieReg uint8

	regionMap [256]memRegion

	dmaActive    bool
	dmaSource    uint16
	dmaCycle     int
	dmaLastValue byte

	hooks Hooks
}

// Hooks lets a test harness intercept bus traffic before it reaches the
// normal dispatch — used to pin LY, silence audio, or capture serial without
// the MMU depending on any particular consumer. Either field may be nil.
type Hooks struct {
	// OnRead runs before the normal read dispatch. Returning ok=true
	// substitutes value for whatever the bus would have produced;
	// ok=false lets the read pass through unmodified.
	OnRead func(address uint16) (value byte, ok bool)

	// OnWrite runs before the normal write dispatch. Returning true
	// consumes the write (the bus sees nothing); false passes it through.
	OnWrite func(address uint16, value byte) (consumed bool)
}

// New constructs an MMU with an empty (no-cartridge) 32KiB ROM image, DMG
// WRAM banking, and every ambient I/O device wired to RequestInterrupt.
func New() *MMU {
	m := &MMU{
		cart: NewCartridge(),
		wram: NewWRAM(false),
		hram: &HRAM{},
		apu:  NewAPUStub(),
	}
	m.ppu = video.New(m.RequestInterrupt)
	m.timer = NewTimer(func() { m.RequestInterrupt(addr.TimerInterrupt) })
	m.joypad = NewJoypad(func() { m.RequestInterrupt(addr.JoypadInterrupt) })
	m.serial = NewSerial(func() { m.RequestInterrupt(addr.SerialInterrupt) }, false, slog.Default())
	initRegionMap(m)
	return m
}

// SetHooks installs trace/debugger callbacks. Passing a zero Hooks disables
// both.
func (m *MMU) SetHooks(h Hooks) { m.hooks = h }

func (m *MMU) PPU() *video.PPU       { return m.ppu }
func (m *MMU) Cartridge() *Cartridge { return m.cart }
func (m *MMU) Joypad() *Joypad       { return m.joypad }
func (m *MMU) Timer() *Timer         { return m.timer }
func (m *MMU) Serial() *Serial       { return m.serial }
func (m *MMU) WRAM() *WRAM           { return m.wram }
func (m *MMU) HRAM() *HRAM           { return m.hram }

// --- save-state surface -------------------------------------------------

func (m *MMU) IFRaw() uint8     { return m.ifReg }
func (m *MMU) SetIFRaw(v uint8) { m.ifReg = v & 0x1F }
func (m *MMU) IERaw() uint8     { return m.ieReg }
func (m *MMU) SetIERaw(v uint8) { m.ieReg = v }

// DMAState/SetDMAState round-trips the OAM DMA unit's in-flight transfer so
// a save taken mid-transfer resumes the remaining cycles instead of losing
// or duplicating copied bytes.
func (m *MMU) DMAState() (active bool, source uint16, cycle int, lastValue byte) {
	return m.dmaActive, m.dmaSource, m.dmaCycle, m.dmaLastValue
}

func (m *MMU) SetDMAState(active bool, source uint16, cycle int, lastValue byte) {
	m.dmaActive, m.dmaSource, m.dmaCycle, m.dmaLastValue = active, source, cycle, lastValue
}

// LoadROM parses and installs a cartridge image; see Cartridge.LoadROM.
func (m *MMU) LoadROM(data []byte) (bool, error) {
	return m.cart.LoadROM(data)
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the corresponding IF bit; used as the callback every
// I/O device is constructed with.
func (m *MMU) RequestInterrupt(i addr.Interrupt) {
	m.ifReg |= uint8(i)
}

// Tick advances every clocked I/O device — timer, serial, PPU, and the OAM
// DMA unit — by exactly one machine cycle. The CPU driver calls this once
// per Cycle().
func (m *MMU) Tick() {
	m.timer.Tick()
	m.serial.Tick()
	m.ppu.Tick()
	m.stepDMA()
}

func (m *MMU) stepDMA() {
	if !m.dmaActive {
		return
	}
	src := m.dmaSource + uint16(m.dmaCycle)
	m.ppu.WriteOAMRaw(uint8(m.dmaCycle), m.unblockedRead(src))
	m.dmaCycle++
	if m.dmaCycle >= dmaLength {
		m.dmaActive = false
		m.dmaCycle = 0
	}
}

func (m *MMU) startDMA(sourceHigh byte) {
	m.dmaSource = uint16(sourceHigh) << 8
	m.dmaCycle = 0
	m.dmaActive = true
	m.dmaLastValue = sourceHigh
}

// blocked reports whether a CPU-initiated access to address is shut out by
// an in-flight OAM DMA transfer. HRAM and the IE register stay reachable,
// matching real hardware (a DMA routine is always copied into HRAM).
func (m *MMU) blocked(address uint16) bool {
	if !m.dmaActive {
		return false
	}
	return address < 0xFF80
}

func (m *MMU) Read(address uint16) byte {
	if m.hooks.OnRead != nil {
		if v, ok := m.hooks.OnRead(address); ok {
			return v
		}
	}
	if m.blocked(address) {
		return 0xFF
	}
	return m.unblockedRead(address)
}

func (m *MMU) unblockedRead(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return m.cart.Read(address)
	case regionVRAM:
		return m.ppu.ReadVRAM(address)
	case regionWRAM:
		return m.wram.Read(address)
	case regionEcho:
		return m.wram.Read(address - 0x2000)
	case regionOAM:
		if address >= 0xFEA0 {
			return 0xFF
		}
		return m.ppu.ReadOAM(address)
	case regionIO:
		return m.readIO(address)
	default:
		panic(fmt.Sprintf("memory: unmapped read at 0x%04X", address))
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.ReadP1()
	case address == addr.SB:
		return m.serial.ReadSB()
	case address == addr.SC:
		return m.serial.ReadSC()
	case address == addr.DIV:
		return m.timer.ReadDIV()
	case address == addr.TIMA:
		return m.timer.ReadTIMA()
	case address == addr.TMA:
		return m.timer.ReadTMA()
	case address == addr.TAC:
		return m.timer.ReadTAC()
	case address == addr.IF:
		return 0xE0 | m.ifReg
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.apu.Read(address)
	case address == addr.LCDC:
		return m.ppu.ReadLCDC()
	case address == addr.STAT:
		return m.ppu.ReadSTAT()
	case address == addr.SCY:
		return m.ppu.ReadSCY()
	case address == addr.SCX:
		return m.ppu.ReadSCX()
	case address == addr.LY:
		return m.ppu.ReadLY()
	case address == addr.LYC:
		return m.ppu.ReadLYC()
	case address == addr.DMA:
		return m.dmaLastValue
	case address == addr.BGP:
		return m.ppu.ReadBGP()
	case address == addr.OBP0:
		return m.ppu.ReadOBP0()
	case address == addr.OBP1:
		return m.ppu.ReadOBP1()
	case address == addr.WY:
		return m.ppu.ReadWY()
	case address == addr.WX:
		return m.ppu.ReadWX()
	case address == addr.SVBK:
		return m.wram.ReadSVBK()
	case address == addr.IE:
		return m.ieReg
	case address >= 0xFF80 && address < 0xFFFF:
		return m.hram.Read(address)
	default:
		return 0xFF
	}
}

func (m *MMU) Write(address uint16, value byte) {
	if m.hooks.OnWrite != nil && m.hooks.OnWrite(address, value) {
		return
	}
	if m.blocked(address) {
		return
	}
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.cart.Write(address, value)
	case regionVRAM:
		m.ppu.WriteVRAM(address, value)
	case regionWRAM:
		m.wram.Write(address, value)
	case regionEcho:
		m.wram.Write(address-0x2000, value)
	case regionOAM:
		if address < 0xFEA0 {
			m.ppu.WriteOAM(address, value)
		}
	case regionIO:
		m.writeIO(address, value)
	default:
		panic(fmt.Sprintf("memory: unmapped write at 0x%04X", address))
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.WriteP1(value)
	case address == addr.SB:
		m.serial.WriteSB(value)
	case address == addr.SC:
		m.serial.WriteSC(value)
	case address == addr.DIV:
		m.timer.WriteDIV(value)
	case address == addr.TIMA:
		m.timer.WriteTIMA(value)
	case address == addr.TMA:
		m.timer.WriteTMA(value)
	case address == addr.TAC:
		m.timer.WriteTAC(value)
	case address == addr.IF:
		m.ifReg = value & 0x1F
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.apu.Write(address, value)
	case address == addr.LCDC:
		m.ppu.WriteLCDC(value)
	case address == addr.STAT:
		m.ppu.WriteSTAT(value)
	case address == addr.SCY:
		m.ppu.WriteSCY(value)
	case address == addr.SCX:
		m.ppu.WriteSCX(value)
	case address == addr.LYC:
		m.ppu.WriteLYC(value)
	case address == addr.DMA:
		m.startDMA(value)
	case address == addr.BGP:
		m.ppu.WriteBGP(value)
	case address == addr.OBP0:
		m.ppu.WriteOBP0(value)
	case address == addr.OBP1:
		m.ppu.WriteOBP1(value)
	case address == addr.WY:
		m.ppu.WriteWY(value)
	case address == addr.WX:
		m.ppu.WriteWX(value)
	case address == addr.SVBK:
		m.wram.WriteSVBK(value)
	case address == addr.IE:
		m.ieReg = value
	case address >= 0xFF80 && address < 0xFFFF:
		m.hram.Write(address, value)
	}
}
