// Package dmg is the root of the emulator core: it composes the CPU, MMU,
// and PPU into a single steppable unit and exposes the debugger/host surface
// a frontend drives.
package dmg

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pixelforge/dmgcore/dmg/cpu"
	"github.com/pixelforge/dmgcore/dmg/memory"
	"github.com/pixelforge/dmgcore/dmg/trace"
	"github.com/pixelforge/dmgcore/dmg/video"
)

// machineCyclesPerFrame is 70224 T-states / 4 T-states-per-machine-cycle.
const machineCyclesPerFrame = 17556

// DebuggerState is the host-visible run mode.
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerStep
	DebuggerStepFrame
)

// Emulator is the root struct: a CPU driven one machine cycle at a time
// against an MMU that itself drives the timer, serial port, PPU, and OAM
// DMA unit every cycle.
type Emulator struct {
	cpu *cpu.CPU
	mem *memory.MMU

	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
}

// New creates an emulator with no cartridge loaded — equivalent to turning
// on a DMG with an empty cartridge slot.
func New() *Emulator {
	e := &Emulator{}
	e.init()
	return e
}

// NewWithFile creates an emulator and loads the ROM at path into it.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dmg: reading ROM file: %w", err)
	}
	e := &Emulator{}
	e.init()
	if ok, err := e.mem.LoadROM(data); !ok {
		return nil, err
	}
	e.cpu.Reset(e.mem)
	slog.Debug("loaded ROM", "path", path, "size", len(data), "title", e.mem.Cartridge().Title())
	return e, nil
}

func (e *Emulator) init() {
	e.mem = memory.New()
	e.cpu = cpu.New(e.mem)
}

// LoadROM replaces the currently loaded cartridge.
func (e *Emulator) LoadROM(data []byte) (bool, error) {
	ok, err := e.mem.LoadROM(data)
	if ok {
		e.Reset()
	}
	return ok, err
}

// Reset restores the CPU's documented reset register state and zeroes the
// timer's internal counter (a ROM-boundary reset, as opposed to the 0xABD0
// power-on value), without swapping the cartridge. WRAM, HRAM, the PPU and
// the cartridge's own state are left as they are.
func (e *Emulator) Reset() {
	e.cpu.Reset(e.mem)
	e.mem.Timer().Reset()
}

// Tick advances the whole system by exactly one machine cycle: the CPU's
// microsequenced driver, then every clocked I/O device.
func (e *Emulator) Tick() {
	e.cpu.Cycle(e.mem)
	e.mem.Tick()
}

// RunUntilFrame executes machine cycles according to the current debugger
// state: a full frame when running, exactly one instruction boundary when
// single-stepping, or nothing at all when paused.
func (e *Emulator) RunUntilFrame() {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	switch state {
	case DebuggerPaused:
		return
	case DebuggerStep:
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMutex.Unlock()
		if !requested {
			return
		}
		e.runOneInstruction()
		e.SetDebuggerState(DebuggerPaused)
	case DebuggerStepFrame:
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMutex.Unlock()
		if !requested {
			return
		}
		e.runFrame()
		e.SetDebuggerState(DebuggerPaused)
	default:
		e.runFrame()
	}
}

func (e *Emulator) runFrame() {
	for i := 0; i < machineCyclesPerFrame; i++ {
		e.Tick()
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
	}
}

// runOneInstruction steps machine cycles until the CPU's microsequencer
// returns to MUPC==0 with a new opcode latched — i.e. a full instruction
// boundary, not a partial microsequence step. A CB prefix byte also ends
// with MUPC==0, but with the CB-prefixed opcode (IR 0x100-0x1FF) still to
// run, so stepping continues through it.
func (e *Emulator) runOneInstruction() {
	oldPC := e.cpu.GetPC()
	e.Tick()
	for e.cpu.MUPC != 0 || (e.cpu.IR >= 0x100 && e.cpu.IR < 0x200) {
		e.Tick()
	}
	e.instructionCount++
	slog.Debug("step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
}

// SetHooks installs bus-level read/write interception used by a test
// harness (pinning LY, silencing audio, capturing serial).
func (e *Emulator) SetHooks(h memory.Hooks) { e.mem.SetHooks(h) }

// SetTraceSink installs a per-instruction-boundary trace line sink; pass
// nil to detach it.
func (e *Emulator) SetTraceSink(sink trace.Sink) { trace.Attach(e.cpu, sink) }

func (e *Emulator) CPU() *cpu.CPU   { return e.cpu }
func (e *Emulator) MMU() *memory.MMU { return e.mem }
func (e *Emulator) PPU() *video.PPU  { return e.mem.PPU() }

// Framebuffer returns the most recently published 2bpp packed framebuffer.
func (e *Emulator) Framebuffer() []byte { return e.mem.PPU().Framebuffer() }

// PopSerial/PeekSerial drain the byte stream written to the serial port
// (SB), the reset input path spec.md's external interface section
// describes for a host that wants to read a ROM's serial output without
// tapping bus hooks or the log.
func (e *Emulator) PopSerial() (byte, bool)  { return e.mem.Serial().Pop() }
func (e *Emulator) PeekSerial() (byte, bool) { return e.mem.Serial().Peek() }

func (e *Emulator) PressButton(btn memory.Button)    { e.mem.Joypad().PressButton(btn) }
func (e *Emulator) ReleaseButton(btn memory.Button)  { e.mem.Joypad().ReleaseButton(btn) }
func (e *Emulator) PressDirection(btn memory.Button) { e.mem.Joypad().PressDirection(btn) }
func (e *Emulator) ReleaseDirection(btn memory.Button) {
	e.mem.Joypad().ReleaseDirection(btn)
}

func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("debugger state changed", "state", state)
}

func (e *Emulator) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *Emulator) DebuggerPause() { e.SetDebuggerState(DebuggerPaused) }

func (e *Emulator) DebuggerResume() { e.SetDebuggerState(DebuggerRunning) }

func (e *Emulator) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
}

func (e *Emulator) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
}

func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }
func (e *Emulator) FrameCount() uint64       { return e.frameCount }
