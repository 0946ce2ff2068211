// Package trace formats CPU state at instruction boundaries in the fixed
// line format test harnesses parse, and attaches a per-instruction sink to
// the CPU. The bus-level read/write hooks a harness installs live in
// memory.Hooks, not here.
package trace

import (
	"fmt"

	"github.com/pixelforge/dmgcore/dmg/cpu"
)

// Bus is the minimal read interface Line needs to fetch PCMEM bytes.
type Bus interface {
	Read(address uint16) byte
}

// Line formats one CPU trace entry. PC is reported as c.PC-1 — the address
// of the opcode that just latched into IR, one behind the CPU's internal PC
// because of the fetch-overlap — and PCMEM is the four bytes starting there.
func Line(c *cpu.CPU, b Bus) string {
	pc := c.PC - 1
	m0 := b.Read(pc)
	m1 := b.Read(pc + 1)
	m2 := b.Read(pc + 2)
	m3 := b.Read(pc + 3)

	return fmt.Sprintf(
		"A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X",
		c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, pc, m0, m1, m2, m3,
	)
}

// Sink receives one formatted trace line per instruction boundary. Attach it
// via Attach, which wires cpu.CPU's TraceHook — the hook is already excluded
// from firing mid-CB-sequence or during HALT's dead cycles, since those
// paths never call the CPU's fetch-overlap routine.
type Sink func(line string)

// Attach installs sink as c's TraceHook. Passing a nil sink detaches any
// previously installed hook.
func Attach(c *cpu.CPU, sink Sink) {
	if sink == nil {
		c.TraceHook = nil
		return
	}
	c.TraceHook = func(c *cpu.CPU, b cpu.Bus) {
		sink(Line(c, b))
	}
}
