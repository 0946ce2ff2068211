// Command singlestep runs a directory of SingleStepTests/sm83-style JSON
// fixtures against the decode table and reports how many passed — the
// corpus runner the in-tree test/conformance table is a representative
// stand-in for (see that package's doc comment for why the full corpus
// isn't vendored in this exercise).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pixelforge/dmgcore/dmg/cpu"
)

// fixtureState mirrors one "initial"/"final" block of a SingleStepTests/sm83
// JSON case: the documented register file plus a sparse RAM cell list.
type fixtureState struct {
	PC  uint16      `json:"pc"`
	SP  uint16      `json:"sp"`
	A   uint8       `json:"a"`
	B   uint8       `json:"b"`
	C   uint8       `json:"c"`
	D   uint8       `json:"d"`
	E   uint8       `json:"e"`
	F   uint8       `json:"f"`
	H   uint8       `json:"h"`
	L   uint8       `json:"l"`
	RAM [][2]uint16 `json:"ram"`
}

// fixture is one JSON test case: an opcode name, initial/final state, and
// the machine-cycle-by-machine-cycle bus trace (only its length is used
// here — the per-cycle address/value/flags detail is out of scope for this
// register-and-memory-only runner).
type fixture struct {
	Name    string          `json:"name"`
	Initial fixtureState    `json:"initial"`
	Final   fixtureState    `json:"final"`
	Cycles  []json.RawMessage `json:"cycles"`
}

type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) Read(address uint16) byte        { return b.mem[address] }
func (b *flatBus) Write(address uint16, value byte) { b.mem[address] = value }

func main() {
	var dir string
	flag.StringVar(&dir, "dir", "", "Directory of SingleStepTests/sm83 JSON fixture files")
	flag.Parse()

	if dir == "" {
		slog.Error("no fixture directory provided (use -dir)")
		os.Exit(1)
	}

	passed, failed, err := runDir(dir)
	if err != nil {
		slog.Error("running fixture directory", "error", err)
		os.Exit(1)
	}

	slog.Info("conformance run complete", "passed", passed, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runDir(dir string) (passed, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading fixture directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return passed, failed, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		var cases []fixture
		if err := json.Unmarshal(data, &cases); err != nil {
			return passed, failed, fmt.Errorf("decoding %s: %w", entry.Name(), err)
		}

		for _, f := range cases {
			if ok := runFixture(f); ok {
				passed++
			} else {
				failed++
			}
		}
	}

	return passed, failed, nil
}

func runFixture(f fixture) bool {
	bus := &flatBus{}
	for _, cell := range f.Initial.RAM {
		bus.mem[cell[0]] = byte(cell[1])
	}

	c := &cpu.CPU{
		A: f.Initial.A, F: f.Initial.F,
		B: f.Initial.B, C: f.Initial.C,
		D: f.Initial.D, E: f.Initial.E,
		H: f.Initial.H, L: f.Initial.L,
		SP: f.Initial.SP,
	}
	c.IR = uint16(bus.Read(f.Initial.PC))
	c.PC = f.Initial.PC + 1

	cycles := 1
	c.Cycle(bus)
	for c.MUPC != 0 || (c.IR >= 0x100 && c.IR < 0x200) {
		c.Cycle(bus)
		cycles++
	}

	ok := c.A == f.Final.A && c.F == f.Final.F &&
		c.B == f.Final.B && c.C == f.Final.C &&
		c.D == f.Final.D && c.E == f.Final.E &&
		c.H == f.Final.H && c.L == f.Final.L &&
		c.SP == f.Final.SP && c.PC-1 == f.Final.PC &&
		len(f.Cycles) == cycles

	for _, cell := range f.Final.RAM {
		if bus.Read(cell[0]) != byte(cell[1]) {
			ok = false
		}
	}

	if !ok {
		slog.Warn("fixture failed", "name", f.Name)
	}
	return ok
}
