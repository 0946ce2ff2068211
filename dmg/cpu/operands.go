package cpu

// Register index order matches the classic SM83/Z80 opcode encoding:
// 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A. Index 6 is not a plain register and
// is handled by dedicated (HL)-operand program builders rather than get8/
// set8, since it always costs a bus transaction.
const (
	regB = 0
	regC = 1
	regD = 2
	regE = 3
	regH = 4
	regL = 5
	regHLInd = 6
	regA = 7
)

func get8(c *CPU, idx int) uint8 {
	switch idx {
	case regB:
		return c.B
	case regC:
		return c.C
	case regD:
		return c.D
	case regE:
		return c.E
	case regH:
		return c.H
	case regL:
		return c.L
	case regA:
		return c.A
	}
	return 0
}

func set8(c *CPU, idx int, v uint8) {
	switch idx {
	case regB:
		c.B = v
	case regC:
		c.C = v
	case regD:
		c.D = v
	case regE:
		c.E = v
	case regH:
		c.H = v
	case regL:
		c.L = v
	case regA:
		c.A = v
	}
}

// rp is the SP-form 16-bit register pair index used by most 16-bit
// instructions: 0=BC 1=DE 2=HL 3=SP.
func getRP(c *CPU, p int) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	case 3:
		return c.SP
	}
	return 0
}

func setRP(c *CPU, p int, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	case 3:
		c.SP = v
	}
}

// rp2 is the AF-form pair index used by PUSH/POP: 0=BC 1=DE 2=HL 3=AF.
func getRP2(c *CPU, p int) uint16 {
	if p == 3 {
		return c.AF()
	}
	return getRP(c, p)
}

func setRP2(c *CPU, p int, v uint16) {
	if p == 3 {
		c.SetAF(v)
		return
	}
	setRP(c, p, v)
}

func condTrue(c *CPU, cc int) bool {
	switch cc {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	case 3:
		return c.flag(flagC)
	}
	return false
}
