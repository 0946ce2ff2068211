package cpu

// primaryTable and cbTable are populated once at package init by decoding
// every opcode byte's x/y/z bitfields (the classic Z80-style decomposition
// SM83 inherits), rather than hand-writing 256+256 literal entries. Each
// case below defers to a small family builder — ldRR, aluReg, push, jrCC,
// and so on — so the irregular GB-specific corners (the x=3 block) are the
// only place with one-off logic.
var primaryTable [256]program
var cbTable [256]program

var ccNames = [4]string{"NZ", "Z", "NC", "C"}

func init() {
	for op := 0; op < 256; op++ {
		primaryTable[op] = decodePrimary(uint8(op))
	}
	for op := 0; op < 256; op++ {
		cbTable[op] = decodeCB(uint8(op))
	}
}

func decodePrimary(op uint8) program {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		return decodeBlockX0(y, z, p, q)
	case 1:
		return decodeBlockX1(int(y), int(z))
	case 2:
		return aluReg(int(y), int(z))
	case 3:
		return decodeBlockX3(op, y, z, p, q)
	}
	return nop()
}

func decodeBlockX0(y, z, p, q uint8) program {
	switch z {
	case 0:
		switch {
		case y == 0:
			return nop()
		case y == 1:
			return ldNNSP()
		case y == 2:
			return stop()
		case y == 3:
			return jrE()
		default:
			return jrCC(int(y - 4))
		}
	case 1:
		if q == 0 {
			return ldRPNN(int(p))
		}
		return addHLRP(int(p))
	case 2:
		return ldIndirectAccum(int(p), q == 1)
	case 3:
		if q == 0 {
			return incRP(int(p))
		}
		return decRP(int(p))
	case 4:
		return incR(int(y))
	case 5:
		return decR(int(y))
	case 6:
		return ldRN(int(y))
	case 7:
		return miscRotateA(y)
	}
	return nop()
}

func decodeBlockX1(y, z int) program {
	if y == regHLInd && z == regHLInd {
		return halt()
	}
	if y == regHLInd {
		return ldHLFromR(z)
	}
	if z == regHLInd {
		return ldRFromHL(y)
	}
	return ldRR(y, z)
}

func decodeBlockX3(op, y, z, p, q uint8) program {
	switch z {
	case 0:
		switch {
		case y <= 3:
			return retCC(int(y))
		case y == 4:
			return ldhNA()
		case y == 5:
			return addSPe()
		case y == 6:
			return ldhAN()
		default:
			return ldHLSPe()
		}
	case 1:
		if q == 0 {
			return pop(int(p))
		}
		switch p {
		case 0:
			return ret()
		case 1:
			return reti()
		case 2:
			return jpHL()
		default:
			return ldSPHL()
		}
	case 2:
		switch {
		case y <= 3:
			return jpCCNN(int(y))
		case y == 4:
			return ldCIndA()
		case y == 5:
			return ldNNA()
		case y == 6:
			return ldACInd()
		default:
			return ldANN()
		}
	case 3:
		switch op {
		case 0xC3:
			return jpNN()
		case 0xCB:
			return cbPrefix()
		case 0xF3:
			return di()
		case 0xFB:
			return ei()
		default:
			return illegal()
		}
	case 4:
		if y <= 3 {
			return callCCNN(int(y))
		}
		return illegal()
	case 5:
		if q == 0 {
			return push(int(p))
		}
		if p == 0 {
			return callNN()
		}
		return illegal()
	case 6:
		return aluImm(int(y))
	default:
		return rst(uint16(y) * 8)
	}
}
