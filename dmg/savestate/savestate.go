// Package savestate serializes and restores a running emulator's complete
// state: WRAM, the cartridge, the CPU register file, the timer, the PPU,
// and the joypad/interrupt I/O registers, in a fixed field order.
//
// A save is an unversioned concatenation of component blobs prefixed by a
// 20-byte SHA-1 digest computed over every serialized field's
// (component name, member name, type tag) triple, in the same fixed order
// the blobs themselves are written in. The digest is not a content hash —
// it hashes the *shape* of the save, so a layout change between the core
// that wrote a save and the core loading it is caught up front instead of
// corrupting state byte-by-byte partway through Load.
package savestate

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/pixelforge/dmgcore/dmg"
)

// Type tags identify a field's wire shape for the layout digest. They carry
// no meaning beyond distinguishing one shape from another.
const (
	tagU8     = 0x01
	tagU16    = 0x02
	tagBytes  = 0x03 // fixed-size byte array
	tagBlob   = 0x04 // length-prefixed []byte
	tagString = 0x05 // length-prefixed string
	tagBool   = 0x06
	tagI32    = 0x07
)

// field describes one serialized member for the purposes of the layout
// digest; component and member are never written to the save itself, only
// hashed.
type field struct {
	component string
	member    string
	tag       byte
}

// layout is the fixed, ordered field list every save's digest is computed
// over. Component and field order here is also the order values are written
// to and read from the blob — changing either changes the digest, which is
// exactly the point.
var layout = []field{
	{"wram", "banks", tagBytes},
	{"wram", "svbk", tagU8},
	{"wram", "hram", tagBytes},

	{"cartridge", "title", tagString},
	{"cartridge", "type_byte", tagU8},
	{"cartridge", "rom", tagBlob},
	{"cartridge", "ram", tagBlob},
	{"cartridge", "bank_state", tagBytes},

	{"cpu", "a", tagU8}, {"cpu", "f", tagU8},
	{"cpu", "b", tagU8}, {"cpu", "c", tagU8},
	{"cpu", "d", tagU8}, {"cpu", "e", tagU8},
	{"cpu", "h", tagU8}, {"cpu", "l", tagU8},
	{"cpu", "w", tagU8}, {"cpu", "z", tagU8},
	{"cpu", "sp", tagU16},
	{"cpu", "pc", tagU16},
	{"cpu", "ir", tagU16},
	{"cpu", "mupc", tagU8},
	{"cpu", "ime", tagBool},
	{"cpu", "halted", tagBool},
	{"cpu", "if", tagU8},
	{"cpu", "ie", tagU8},

	{"timer", "internal_counter", tagU16},
	{"timer", "tima", tagU8},
	{"timer", "tma", tagU8},
	{"timer", "tac", tagU8},
	{"timer", "last_bit", tagBool},

	{"ppu", "mode", tagU8},
	{"ppu", "mode_clock", tagI32},
	{"ppu", "stat_line", tagBool},
	{"ppu", "lyc_line", tagBool},
	{"ppu", "vram", tagBytes},
	{"ppu", "oam", tagBytes},
	{"ppu", "registers", tagBytes},
	{"ppu", "framebuffer_halves", tagBytes},
	{"ppu", "write_index", tagI32},
	{"ppu", "read_index", tagI32},

	{"io", "joypad_register", tagU8},
	{"io", "joypad_buttons", tagU8},
	{"io", "joypad_directions", tagU8},
	{"io", "dma_active", tagBool},
	{"io", "dma_source", tagU16},
	{"io", "dma_cycle", tagI32},
	{"io", "dma_last_value", tagU8},
}

// layoutDigest hashes layout itself: for every field, its component name,
// member name, and type tag, concatenated in fixed order.
func layoutDigest() [20]byte {
	h := sha1.New()
	for _, f := range layout {
		h.Write([]byte(f.component))
		h.Write([]byte(f.member))
		h.Write([]byte{f.tag})
	}
	var sum [20]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeU8(buf *bytes.Buffer, v uint8)   { buf.WriteByte(v) }
func writeU16(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.LittleEndian, v) }
func writeI32(buf *bytes.Buffer, v int32)  { binary.Write(buf, binary.LittleEndian, v) }
func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}
func writeBlob(buf *bytes.Buffer, v []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(v)))
	buf.Write(v)
}
func writeString(buf *bytes.Buffer, v string) { writeBlob(buf, []byte(v)) }

// Save serializes e's complete state into a save-state blob.
func Save(e *dmg.Emulator) []byte {
	mmu := e.MMU()
	c := e.CPU()
	ppu := e.PPU()
	timer := mmu.Timer()
	wram := mmu.WRAM()
	hram := mmu.HRAM()
	joypad := mmu.Joypad()
	cart := mmu.Cartridge()

	var buf bytes.Buffer

	digest := layoutDigest()
	buf.Write(digest[:])

	banks := wram.Banks()
	for _, bank := range banks {
		buf.Write(bank[:])
	}
	writeU8(&buf, wram.SVBKRaw())
	hramBytes := hram.Bytes()
	buf.Write(hramBytes[:])

	writeString(&buf, cart.Title())
	writeU8(&buf, cart.TypeByte())
	writeBlob(&buf, cart.ROMBytes())
	writeBlob(&buf, cart.RAMBytes())
	bankState := cart.BankSnapshot()
	buf.Write(bankState[:])

	writeU8(&buf, c.A)
	writeU8(&buf, c.F)
	writeU8(&buf, c.B)
	writeU8(&buf, c.C)
	writeU8(&buf, c.D)
	writeU8(&buf, c.E)
	writeU8(&buf, c.H)
	writeU8(&buf, c.L)
	writeU8(&buf, c.W)
	writeU8(&buf, c.Z)
	writeU16(&buf, c.SP)
	writeU16(&buf, c.PC)
	writeU16(&buf, c.IR)
	writeU8(&buf, c.MUPC)
	writeBool(&buf, c.IME)
	writeBool(&buf, c.Halted)
	writeU8(&buf, mmu.IFRaw())
	writeU8(&buf, mmu.IERaw())

	writeU16(&buf, timer.InternalCounterRaw())
	writeU8(&buf, timer.TIMARaw())
	writeU8(&buf, timer.TMARaw())
	writeU8(&buf, timer.TACRaw())
	writeBool(&buf, timer.LastBitRaw())

	writeU8(&buf, ppu.ModeRaw())
	writeI32(&buf, int32(ppu.ModeClock()))
	writeBool(&buf, ppu.StatLine())
	writeBool(&buf, ppu.LYCLine())
	vram := ppu.VRAMBytes()
	buf.Write(vram[:])
	oam := ppu.OAMBytes()
	buf.Write(oam[:])
	regs := ppu.RegisterBlock()
	buf.Write(regs[:])
	halves := ppu.FramebufferHalves()
	buf.Write(halves[0][:])
	buf.Write(halves[1][:])
	writeI32(&buf, int32(ppu.WriteIndex()))
	writeI32(&buf, ppu.ReadIndex())

	writeU8(&buf, joypad.RegisterRaw())
	buttons, directions := joypad.StateRaw()
	writeU8(&buf, buttons)
	writeU8(&buf, directions)
	active, source, cycle, lastValue := mmu.DMAState()
	writeBool(&buf, active)
	writeU16(&buf, source)
	writeI32(&buf, int32(cycle))
	writeU8(&buf, lastValue)

	return buf.Bytes()
}

// reader wraps a byte slice with an internal cursor, since encoding/binary
// needs an io.Reader and bytes.Reader doesn't expose raw slicing for the
// fixed-size array reads below.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) readU8() uint8 {
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) readU16() uint16 {
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) readI32() int32 {
	v := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v
}

func (r *reader) readBool() bool { return r.readU8() != 0 }

func (r *reader) readN(n int) []byte {
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) readBlob() []byte {
	n := int(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return r.readN(n)
}

func (r *reader) readString() string { return string(r.readBlob()) }

// LoadErrorKind distinguishes why Load rejected a save-state blob.
type LoadErrorKind int

const (
	NoCartridge LoadErrorKind = iota
	SizeMismatch
	DigestMismatch
)

// LoadError reports why Load rejected a save-state blob. Load never
// mutates e when it returns one of these: a caller can distinguish "there's
// nothing to load onto" from "this save doesn't belong to this core" and
// react accordingly (e.g. prompt to load a ROM first vs. warn about a
// version mismatch).
type LoadError struct {
	Kind LoadErrorKind
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case NoCartridge:
		return "savestate: no cartridge loaded"
	case SizeMismatch:
		return "savestate: blob too short"
	case DigestMismatch:
		return "savestate: layout digest mismatch — save was written by an incompatible core version"
	default:
		return "savestate: load rejected"
	}
}

// Load restores e's complete state from a save-state blob previously
// produced by Save. It rejects without mutating e when there's no
// cartridge loaded, the blob is too short to contain a digest, or the
// digest doesn't match this core's layout.
func Load(e *dmg.Emulator, data []byte) error {
	if !e.MMU().Cartridge().IsLoaded() {
		return &LoadError{Kind: NoCartridge}
	}
	if len(data) < 20 {
		return &LoadError{Kind: SizeMismatch}
	}
	want := layoutDigest()
	if !bytes.Equal(data[:20], want[:]) {
		return &LoadError{Kind: DigestMismatch}
	}

	r := &reader{data: data, pos: 20}

	var banks [8][0x1000]byte
	for i := range banks {
		copy(banks[i][:], r.readN(0x1000))
	}
	svbk := r.readU8()
	var hramBytes [0x7F]byte
	copy(hramBytes[:], r.readN(0x7F))

	title := r.readString()
	typeByte := r.readU8()
	rom := append([]byte(nil), r.readBlob()...)
	ram := append([]byte(nil), r.readBlob()...)
	var bankState [10]byte
	copy(bankState[:], r.readN(10))

	a, f := r.readU8(), r.readU8()
	b, cc := r.readU8(), r.readU8()
	d, ee := r.readU8(), r.readU8()
	hh, l := r.readU8(), r.readU8()
	w, z := r.readU8(), r.readU8()
	sp := r.readU16()
	pc := r.readU16()
	ir := r.readU16()
	mupc := r.readU8()
	ime := r.readBool()
	halted := r.readBool()
	ifReg := r.readU8()
	ieReg := r.readU8()

	internalCounter := r.readU16()
	tima := r.readU8()
	tma := r.readU8()
	tac := r.readU8()
	lastBit := r.readBool()

	mode := r.readU8()
	modeClock := r.readI32()
	statLine := r.readBool()
	lycLine := r.readBool()
	var vram [0x2000]byte
	copy(vram[:], r.readN(0x2000))
	var oam [0xA0]byte
	copy(oam[:], r.readN(0xA0))
	var regs [11]byte
	copy(regs[:], r.readN(11))
	var halves [2][160 / 4 * 144]byte
	copy(halves[0][:], r.readN(len(halves[0])))
	copy(halves[1][:], r.readN(len(halves[1])))
	writeIndex := r.readI32()
	readIndex := r.readI32()

	joypadReg := r.readU8()
	joypadButtons := r.readU8()
	joypadDirections := r.readU8()
	dmaActive := r.readBool()
	dmaSource := r.readU16()
	dmaCycle := r.readI32()
	dmaLastValue := r.readU8()

	mmu := e.MMU()
	if err := mmu.Cartridge().RestoreState(title, typeByte, rom, ram, bankState); err != nil {
		return fmt.Errorf("savestate: restoring cartridge: %w", err)
	}

	wram := mmu.WRAM()
	wram.SetBanks(banks)
	wram.SetSVBKRaw(svbk)
	mmu.HRAM().SetBytes(hramBytes)

	c := e.CPU()
	c.A, c.F = a, f
	c.B, c.C = b, cc
	c.D, c.E = d, ee
	c.H, c.L = hh, l
	c.W, c.Z = w, z
	c.SP = sp
	c.PC = pc
	c.IR = ir
	c.MUPC = mupc
	c.IME = ime
	c.Halted = halted
	mmu.SetIFRaw(ifReg)
	mmu.SetIERaw(ieReg)

	timer := mmu.Timer()
	timer.SetInternalCounterRaw(internalCounter)
	timer.SetTIMARaw(tima)
	timer.SetTMARaw(tma)
	timer.SetTACRaw(tac)
	timer.SetLastBitRaw(lastBit)

	ppu := e.PPU()
	ppu.SetModeRaw(mode)
	ppu.SetModeClock(int(modeClock))
	ppu.SetStatLine(statLine)
	ppu.SetLYCLine(lycLine)
	ppu.SetVRAMBytes(vram)
	ppu.SetOAMBytes(oam)
	ppu.SetRegisterBlock(regs)
	ppu.SetFramebufferHalves(halves)
	ppu.SetWriteIndex(int(writeIndex))
	ppu.SetReadIndex(readIndex)

	joypad := mmu.Joypad()
	joypad.SetRegisterRaw(joypadReg)
	joypad.SetStateRaw(joypadButtons, joypadDirections)
	mmu.SetDMAState(dmaActive, dmaSource, int(dmaCycle), dmaLastValue)

	return nil
}
