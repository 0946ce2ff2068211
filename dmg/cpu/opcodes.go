package cpu

// Family builders used by decode.go. Each returns a fully formed program;
// the bus-transaction bookkeeping (pre steps vs. the free final cycle) is
// spelled out next to each builder so the cycle count matches spec.md's
// per-instruction table directly.

func nop() program {
	return program{final: func(c *CPU, b Bus) bool { return true }}
}

func illegal() program {
	// Undefined on real hardware; treated as a one-cycle no-op here so a
	// stray fetch of one of these bytes doesn't wedge the decoder.
	return nop()
}

func ldRR(dst, src int) program {
	return program{final: func(c *CPU, b Bus) bool {
		set8(c, dst, get8(c, src))
		return true
	}}
}

func ldRFromHL(dst int) program {
	return program{
		pre: []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true }},
		final: func(c *CPU, b Bus) bool {
			set8(c, dst, c.Z)
			return true
		},
	}
}

func ldHLFromR(src int) program {
	return program{
		pre: []preStep{func(c *CPU, b Bus) bool { b.Write(c.HL(), get8(c, src)); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func halt() program {
	return program{final: func(c *CPU, b Bus) bool {
		c.Halted = true
		return false
	}}
}

func stop() program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { _ = b.Read(c.PC); c.PC++; return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldRN(dst int) program {
	if dst == regHLInd {
		return ldHLN()
	}
	return program{
		pre: []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true }},
		final: func(c *CPU, b Bus) bool {
			set8(c, dst, c.Z)
			return true
		},
	}
}

func ldHLN() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { b.Write(c.HL(), c.Z); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldRPNN(p int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
		},
		final: func(c *CPU, b Bus) bool {
			setRP(c, p, c.WZ())
			return true
		},
	}
}

func addHLRP(p int) program {
	return program{
		pre: []preStep{func(c *CPU, b Bus) bool { c.aluAddHL(getRP(c, p)); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

// ldIndirectAccum covers the four (BC)/(DE)/(HL+)/(HL-) load forms; load
// selects A<-mem when true, mem<-A when false.
func ldIndirectAccum(p int, load bool) program {
	addrFor := func(c *CPU) uint16 {
		switch p {
		case 0:
			return c.BC()
		case 1:
			return c.DE()
		case 2:
			v := c.HL()
			c.SetHL(v + 1)
			return v
		default:
			v := c.HL()
			c.SetHL(v - 1)
			return v
		}
	}
	if load {
		return program{
			pre: []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(addrFor(c)); return true }},
			final: func(c *CPU, b Bus) bool {
				c.A = c.Z
				return true
			},
		}
	}
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { b.Write(addrFor(c), c.A); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func incRP(p int) program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { setRP(c, p, getRP(c, p)+1); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func decRP(p int) program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { setRP(c, p, getRP(c, p)-1); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func incR(y int) program {
	if y == regHLInd {
		return program{
			pre: []preStep{
				func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true },
				func(c *CPU, b Bus) bool { b.Write(c.HL(), c.aluInc(c.Z)); return true },
			},
			final: func(c *CPU, b Bus) bool { return true },
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		set8(c, y, c.aluInc(get8(c, y)))
		return true
	}}
}

func decR(y int) program {
	if y == regHLInd {
		return program{
			pre: []preStep{
				func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true },
				func(c *CPU, b Bus) bool { b.Write(c.HL(), c.aluDec(c.Z)); return true },
			},
			final: func(c *CPU, b Bus) bool { return true },
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		set8(c, y, c.aluDec(get8(c, y)))
		return true
	}}
}

func miscRotateA(y uint8) program {
	return program{final: func(c *CPU, b Bus) bool {
		switch y {
		case 0:
			c.A = c.rlc(c.A)
		case 1:
			c.A = c.rrc(c.A)
		case 2:
			c.A = c.rl(c.A)
		case 3:
			c.A = c.rr(c.A)
		case 4:
			c.daa()
		case 5:
			c.A = ^c.A
			c.setFlag(flagN, true)
			c.setFlag(flagH, true)
		case 6:
			c.setFlag(flagN, false)
			c.setFlag(flagH, false)
			c.setFlag(flagC, true)
		case 7:
			c.setFlag(flagN, false)
			c.setFlag(flagH, false)
			c.setFlag(flagC, !c.flag(flagC))
		}
		if y <= 3 {
			// unlike the CB-prefixed rotates, RLCA/RRCA/RLA/RRA always clear Z.
			c.setFlag(flagZ, false)
		}
		return true
	}}
}

var aluOps = [8]func(c *CPU, v uint8){
	func(c *CPU, v uint8) { c.aluAdd(v, false) },
	func(c *CPU, v uint8) { c.aluAdd(v, true) },
	func(c *CPU, v uint8) { c.aluSub(v, false) },
	func(c *CPU, v uint8) { c.aluSub(v, true) },
	func(c *CPU, v uint8) { c.aluAnd(v) },
	func(c *CPU, v uint8) { c.aluXor(v) },
	func(c *CPU, v uint8) { c.aluOr(v) },
	func(c *CPU, v uint8) { c.aluCp(v) },
}

func aluReg(op, z int) program {
	if z == regHLInd {
		return program{
			pre:   []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(c.HL()); return true }},
			final: func(c *CPU, b Bus) bool { aluOps[op](c, c.Z); return true },
		}
	}
	return program{final: func(c *CPU, b Bus) bool {
		aluOps[op](c, get8(c, z))
		return true
	}}
}

func aluImm(op int) program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true }},
		final: func(c *CPU, b Bus) bool { aluOps[op](c, c.Z); return true },
	}
}

func jrE() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.PC = uint16(int32(c.PC) + int32(int8(c.Z))); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func jrCC(cc int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool {
				c.Z = b.Read(c.PC)
				c.PC++
				return condTrue(c, cc)
			},
			func(c *CPU, b Bus) bool { c.PC = uint16(int32(c.PC) + int32(int8(c.Z))); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func jpNN() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.PC = c.WZ(); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func jpCCNN(cc int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool {
				c.W = b.Read(c.PC)
				c.PC++
				return condTrue(c, cc)
			},
			func(c *CPU, b Bus) bool { c.PC = c.WZ(); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func jpHL() program {
	return program{final: func(c *CPU, b Bus) bool {
		c.PC = c.HL()
		return true
	}}
}

func ldNNSP() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { b.Write(c.WZ(), low(c.SP)); return true },
			func(c *CPU, b Bus) bool { b.Write(c.WZ()+1, high(c.SP)); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldSPHL() program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { return true }},
		final: func(c *CPU, b Bus) bool { c.SP = c.HL(); return true },
	}
}

func ldHLSPe() program {
	return program{
		pre: []preStep{func(c *CPU, b Bus) bool {
			e := b.Read(c.PC)
			c.PC++
			c.SetWZ(c.aluAddSPOffset(e))
			return true
		}},
		final: func(c *CPU, b Bus) bool {
			c.SetHL(c.WZ())
			return true
		},
	}
}

func addSPe() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool {
				e := b.Read(c.PC)
				c.PC++
				c.SetWZ(c.aluAddSPOffset(e))
				return true
			},
			func(c *CPU, b Bus) bool { return true },
			func(c *CPU, b Bus) bool { return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.SP = c.WZ()
			return true
		},
	}
}

func push(p2 int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, high(getRP2(c, p2))); c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, low(getRP2(c, p2))); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func pop(p2 int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.SP); c.SP++; return true },
		},
		final: func(c *CPU, b Bus) bool {
			setRP2(c, p2, c.WZ())
			return true
		},
	}
}

func callNN() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, high(c.PC)); c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, low(c.PC)); return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.PC = c.WZ()
			return true
		},
	}
}

func callCCNN(cc int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool {
				c.W = b.Read(c.PC)
				c.PC++
				return condTrue(c, cc)
			},
			func(c *CPU, b Bus) bool { c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, high(c.PC)); c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, low(c.PC)); return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.PC = c.WZ()
			return true
		},
	}
}

func ret() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.PC = c.WZ(); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func retCC(cc int) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { return condTrue(c, cc) },
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.PC = c.WZ(); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func reti() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.SP); c.SP++; return true },
			func(c *CPU, b Bus) bool { c.PC = c.WZ(); c.IME = true; return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func rst(vector uint16) program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, high(c.PC)); c.SP--; return true },
			func(c *CPU, b Bus) bool { b.Write(c.SP, low(c.PC)); return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.PC = vector
			return true
		},
	}
}

func ldhNA() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { b.Write(0xFF00+uint16(c.Z), c.A); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldhAN() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.Z = b.Read(0xFF00 + uint16(c.Z)); return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.A = c.Z
			return true
		},
	}
}

func ldCIndA() program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { b.Write(0xFF00+uint16(c.C), c.A); return true }},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldACInd() program {
	return program{
		pre:   []preStep{func(c *CPU, b Bus) bool { c.Z = b.Read(0xFF00 + uint16(c.C)); return true }},
		final: func(c *CPU, b Bus) bool {
			c.A = c.Z
			return true
		},
	}
}

func ldNNA() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { b.Write(c.WZ(), c.A); return true },
		},
		final: func(c *CPU, b Bus) bool { return true },
	}
}

func ldANN() program {
	return program{
		pre: []preStep{
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.W = b.Read(c.PC); c.PC++; return true },
			func(c *CPU, b Bus) bool { c.Z = b.Read(c.WZ()); return true },
		},
		final: func(c *CPU, b Bus) bool {
			c.A = c.Z
			return true
		},
	}
}

func di() program {
	return program{final: func(c *CPU, b Bus) bool {
		c.IME = false
		c.iePending = false
		return true
	}}
}

func ei() program {
	return program{final: func(c *CPU, b Bus) bool {
		c.iePending = true
		return true
	}}
}

func cbPrefix() program {
	return program{final: func(c *CPU, b Bus) bool {
		second := b.Read(c.PC)
		c.PC++
		c.IR = 0x100 | uint16(second)
		c.MUPC = 0
		return false
	}}
}
