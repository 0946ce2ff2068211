package memory

import "fmt"

// ramSizeBytes is the header's RAM-size code table, sourced from
// original_source's rom_t::calc_ram_size: code 0x01 is a legacy/unused
// code that nonetheless means "no RAM", same as 0x00.
var ramSizeBytes = map[byte]int{
	0x00: 0,
	0x01: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Cartridge owns the ROM image, any battery/volatile RAM, and the selected
// MBC's bank state. A zero-value-constructed Cartridge (NewCartridge) is a
// minimum-viable 32KiB, no-RAM, no-banking image so the MMU always has
// something to dispatch to even before a ROM is loaded; loaded stays false
// until a real image has been accepted by LoadROM/RestoreState, so callers
// (e.g. savestate.Load) can tell "powered on with nothing in the slot" apart
// from "running a game".
type Cartridge struct {
	title    string
	typeByte byte
	rom      []byte
	ram      []byte
	bank     mbc
	loaded   bool
}

func NewCartridge() *Cartridge {
	return &Cartridge{rom: make([]byte, 32*1024), bank: mbc0{}}
}

// LoadROM parses the header at 0x0100-0x014F and replaces the cartridge's
// state. It returns false with a descriptive error — and leaves the
// cartridge unmodified — for a file too short to contain a header or for
// an unrecognized cartridge-type byte.
func (c *Cartridge) LoadROM(data []byte) (bool, error) {
	if len(data) < 0x150 {
		return false, fmt.Errorf("memory: ROM image too short (%d bytes, need at least 0x150)", len(data))
	}

	typeByte := data[0x0147]
	bank, err := newMBC(typeByte)
	if err != nil {
		return false, err
	}

	ramBytes, ok := ramSizeBytes[data[0x0149]]
	if !ok {
		ramBytes = 0
	}

	c.title = cleanTitle(data[0x0134:0x0144])
	c.typeByte = typeByte
	c.rom = append([]byte(nil), data...)
	c.ram = make([]byte, ramBytes)
	c.bank = bank
	c.loaded = true
	return true, nil
}

// IsLoaded reports whether a real ROM image has been accepted, as opposed
// to the zeroed placeholder NewCartridge starts with.
func (c *Cartridge) IsLoaded() bool { return c.loaded }

func newMBC(typeByte byte) (mbc, error) {
	switch {
	case typeByte == 0x00:
		return mbc0{}, nil
	case typeByte >= 0x01 && typeByte <= 0x03:
		return &mbc1{}, nil
	case typeByte >= 0x0F && typeByte <= 0x13:
		return &mbc3{}, nil
	case typeByte >= 0x19 && typeByte <= 0x1E:
		return &mbc5{}, nil
	default:
		return nil, fmt.Errorf("memory: unrecognized cartridge type byte 0x%02X", typeByte)
	}
}

func (c *Cartridge) Title() string { return c.title }

func (c *Cartridge) Read(addr uint16) byte     { return c.bank.Read(c.rom, c.ram, addr) }
func (c *Cartridge) Write(addr uint16, v byte) { c.bank.Write(c.rom, c.ram, addr, v) }

// --- save-state surface -------------------------------------------------

func (c *Cartridge) TypeByte() byte       { return c.typeByte }
func (c *Cartridge) ROMBytes() []byte     { return c.rom }
func (c *Cartridge) RAMBytes() []byte     { return c.ram }
func (c *Cartridge) BankSnapshot() [10]byte { return c.bank.Snapshot() }

// RestoreState reconstructs the cartridge's banking state from a save: the
// MBC kind is re-derived from typeByte (LoadROM's own dispatch), then its
// register state and the raw rom/ram bytes are restored directly.
func (c *Cartridge) RestoreState(title string, typeByte byte, rom, ram []byte, bankState [10]byte) error {
	bank, err := newMBC(typeByte)
	if err != nil {
		return err
	}
	bank.Restore(bankState)
	c.title = title
	c.typeByte = typeByte
	c.rom = rom
	c.ram = ram
	c.bank = bank
	c.loaded = true
	return nil
}

// cleanTitle trims the title field's trailing zero padding and any
// CGB-flag byte that may have landed at the end of a 15/11-character title.
func cleanTitle(raw []byte) string {
	end := len(raw)
	if end > 0 && (raw[end-1] == 0x80 || raw[end-1] == 0xC0) {
		end--
	}
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}
