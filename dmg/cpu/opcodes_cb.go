package cpu

// decodeCB builds the 256-entry CB-prefixed table. Unlike the primary
// table, these programs never include the prefix byte itself — that read
// happens once, generically, in cbPrefix's final step (see opcodes.go) —
// so every cycle count here is one short of the instruction's documented
// total.
func decodeCB(op uint8) program {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	switch x {
	case 0:
		return cbShift(y, int(z))
	case 1:
		return cbBit(y, int(z))
	case 2:
		return cbResSet(y, int(z), false)
	default:
		return cbResSet(y, int(z), true)
	}
}

var shiftOps = [8]func(c *CPU, v uint8) uint8{
	func(c *CPU, v uint8) uint8 { return c.rlc(v) },
	func(c *CPU, v uint8) uint8 { return c.rrc(v) },
	func(c *CPU, v uint8) uint8 { return c.rl(v) },
	func(c *CPU, v uint8) uint8 { return c.rr(v) },
	func(c *CPU, v uint8) uint8 { return c.sla(v) },
	func(c *CPU, v uint8) uint8 { return c.sra(v) },
	func(c *CPU, v uint8) uint8 { return c.swap(v) },
	func(c *CPU, v uint8) uint8 { return c.srl(v) },
}

func cbShift(y uint8, z int) program {
	if z == regHLInd {
		return program{
			pre: []preStep{
				func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true },
				func(c *CPU, b Bus) bool { b.Write(c.HL(), shiftOps[y](c, c.Z)); return true },
			},
			final: func(c *CPU, b Bus) bool { return true },
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		set8(c, z, shiftOps[y](c, get8(c, z)))
		return true
	}}
}

func cbBit(y uint8, z int) program {
	if z == regHLInd {
		return program{
			pre: []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true }},
			final: func(c *CPU, b Bus) bool {
				c.bit(c.Z, y)
				return true
			},
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		c.bit(get8(c, z), y)
		return true
	}}
}

func cbResSet(y uint8, z int, set bool) program {
	apply := func(v uint8) uint8 {
		if set {
			return v | (1 << y)
		}
		return v &^ (1 << y)
	}
	if z == regHLInd {
		return program{
			pre: []preStep{
				func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true },
				func(c *CPU, b Bus) bool { b.Write(c.HL(), apply(c.Z)); return true },
			},
			final: func(c *CPU, b Bus) bool { return true },
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		set8(c, z, apply(get8(c, z)))
		return true
	}}
}
