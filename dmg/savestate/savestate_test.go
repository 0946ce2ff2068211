package savestate

import (
	"errors"
	"testing"

	"github.com/pixelforge/dmgcore/dmg"
	"github.com/pixelforge/dmgcore/dmg/memory"
)

// minimalROM returns a zero-filled ROM image just long enough to carry a
// valid header (type 0x00, no RAM, no MBC), so LoadROM accepts it.
func minimalROM() []byte {
	return make([]byte, 0x150)
}

func TestSaveLoadRoundTripPreservesCPUState(t *testing.T) {
	e := dmg.New()
	e.LoadROM(minimalROM())
	c := e.CPU()
	c.A, c.F = 0x42, 0xB0
	c.SP = 0xDEAD
	c.PC = 0xBEEF
	c.IME = true

	blob := Save(e)

	c.A = 0x00
	c.SP = 0x0000
	c.PC = 0x0000
	c.IME = false

	if err := Load(e, blob); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if c.A != 0x42 || c.SP != 0xDEAD || c.PC != 0xBEEF || !c.IME {
		t.Errorf("CPU state after Load = A:%02X SP:%04X PC:%04X IME:%v; want A:42 SP:DEAD PC:BEEF IME:true",
			c.A, c.SP, c.PC, c.IME)
	}
}

func TestSaveLoadRoundTripPreservesPPUAndVRAM(t *testing.T) {
	e := dmg.New()
	e.LoadROM(minimalROM())
	ppu := e.PPU()
	ppu.WriteVRAM(0x8000, 0x55)
	ppu.WriteLCDC(0x00) // disable LCD so the direct VRAM write below isn't gated
	ppu.WriteBGP(0x1B)

	blob := Save(e)

	ppu.WriteVRAM(0x8000, 0x00)
	ppu.WriteBGP(0x00)

	if err := Load(e, blob); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := ppu.ReadVRAM(0x8000); got != 0x55 {
		t.Errorf("VRAM[0x8000] after Load = 0x%02X; want 0x55", got)
	}
	if got := ppu.ReadBGP(); got != 0x1B {
		t.Errorf("BGP after Load = 0x%02X; want 0x1B", got)
	}
}

func TestSaveLoadRoundTripPreservesWRAMAndJoypad(t *testing.T) {
	e := dmg.New()
	e.LoadROM(minimalROM())
	mmu := e.MMU()
	mmu.WRAM().Write(0xC010, 0xAB)
	e.PressButton(memory.ButtonA)

	blob := Save(e)

	mmu.WRAM().Write(0xC010, 0x00)
	e.ReleaseButton(memory.ButtonA)

	if err := Load(e, blob); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := mmu.WRAM().Read(0xC010); got != 0xAB {
		t.Errorf("WRAM[0xC010] after Load = 0x%02X; want 0xAB", got)
	}
	buttons, _ := mmu.Joypad().StateRaw()
	if buttons&uint8(memory.ButtonA) == 0 {
		t.Error("joypad button-A state not restored after Load")
	}
}

func TestLoadRejectsCorruptedDigest(t *testing.T) {
	e := dmg.New()
	e.LoadROM(minimalROM())
	blob := Save(e)
	blob[0] ^= 0xFF

	err := Load(e, blob)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != DigestMismatch {
		t.Errorf("Load with a corrupted digest header returned %v; want *LoadError{Kind: DigestMismatch}", err)
	}
}

func TestLoadRejectsTruncatedBlob(t *testing.T) {
	e := dmg.New()
	e.LoadROM(minimalROM())

	err := Load(e, []byte{0x01, 0x02})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != SizeMismatch {
		t.Errorf("Load with a truncated blob returned %v; want *LoadError{Kind: SizeMismatch}", err)
	}
}

func TestLoadRejectsWhenNoCartridgeLoaded(t *testing.T) {
	loaded := dmg.New()
	loaded.LoadROM(minimalROM())
	blob := Save(loaded)

	e := dmg.New() // no ROM loaded

	err := Load(e, blob)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != NoCartridge {
		t.Errorf("Load with no cartridge loaded returned %v; want *LoadError{Kind: NoCartridge}", err)
	}
}
