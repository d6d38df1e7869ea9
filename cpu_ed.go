// cpu_ed.go - the 0xED prefix table: extended 16-bit loads, 16-bit
// ADC/SBC, NEG, interrupt-mode/IFF control, the I/R transfer
// instructions, RRD/RLD, IN/OUT, and the eight block primitives.

package z80

// dispatchED executes an ED-prefixed instruction. Unassigned ED
// opcodes are a documented two-byte NOP.
func (c *CPU) dispatchED() {
	sub := c.fetchOpcode()

	switch sub {
	case 0x47:
		c.I = c.A
		c.tick(9)
		return
	case 0x4F:
		c.R = c.A
		c.tick(9)
		return
	case 0x57:
		c.A = c.I
		c.setIRTransferFlags()
		c.tick(9)
		return
	case 0x5F:
		c.A = c.R
		c.setIRTransferFlags()
		c.tick(9)
		return

	case 0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C:
		c.neg()
		c.tick(8)
		return

	case 0x45, 0x4D, 0x55, 0x5D, 0x65, 0x6D, 0x75, 0x7D:
		c.PC = c.popWord()
		c.IFF1 = c.IFF2
		c.LastInstruction = LastRET
		c.tick(14)
		return

	case 0x46, 0x4E, 0x66, 0x6E:
		c.IM = 0
		c.tick(8)
		return
	case 0x56, 0x76:
		c.IM = 1
		c.tick(8)
		return
	case 0x5E, 0x7E:
		c.IM = 2
		c.tick(8)
		return

	case 0x67:
		c.rrd()
		c.tick(18)
		return
	case 0x6F:
		c.rld()
		c.tick(18)
		return

	case 0x43:
		c.edStoreWord(c.fetchWord(), c.BC())
		c.tick(20)
		return
	case 0x53:
		c.edStoreWord(c.fetchWord(), c.DE())
		c.tick(20)
		return
	case 0x63:
		c.edStoreWord(c.fetchWord(), c.HL())
		c.tick(20)
		return
	case 0x73:
		c.edStoreWord(c.fetchWord(), c.SP)
		c.tick(20)
		return
	case 0x4B:
		c.SetBC(c.edLoadWord(c.fetchWord()))
		c.tick(20)
		return
	case 0x5B:
		c.SetDE(c.edLoadWord(c.fetchWord()))
		c.tick(20)
		return
	case 0x6B:
		c.SetHL(c.edLoadWord(c.fetchWord()))
		c.tick(20)
		return
	case 0x7B:
		c.SP = c.edLoadWord(c.fetchWord())
		c.tick(20)
		return

	case 0x42:
		c.SetHL(c.hlSbc16(c.BC()))
		c.tick(15)
		return
	case 0x52:
		c.SetHL(c.hlSbc16(c.DE()))
		c.tick(15)
		return
	case 0x62:
		c.SetHL(c.hlSbc16(c.HL()))
		c.tick(15)
		return
	case 0x72:
		c.SetHL(c.hlSbc16(c.SP))
		c.tick(15)
		return
	case 0x4A:
		c.SetHL(c.hlAdc16(c.BC()))
		c.tick(15)
		return
	case 0x5A:
		c.SetHL(c.hlAdc16(c.DE()))
		c.tick(15)
		return
	case 0x6A:
		c.SetHL(c.hlAdc16(c.HL()))
		c.tick(15)
		return
	case 0x7A:
		c.SetHL(c.hlAdc16(c.SP))
		c.tick(15)
		return

	case 0x71:
		c.bus.IOWrite(c.BC(), 0)
		c.tick(12)
		return

	case 0xA0:
		c.blockLDI(1)
		c.tick(16)
		return
	case 0xA8:
		c.blockLDI(-1)
		c.tick(16)
		return
	case 0xB0:
		c.blockLDI(1)
		c.tick(16)
		c.repeatIfBC()
		return
	case 0xB8:
		c.blockLDI(-1)
		c.tick(16)
		c.repeatIfBC()
		return

	case 0xA1:
		c.blockCPI(1)
		c.tick(16)
		return
	case 0xA9:
		c.blockCPI(-1)
		c.tick(16)
		return
	case 0xB1:
		c.blockCPI(1)
		c.tick(16)
		c.repeatIfBCAndNotFound()
		return
	case 0xB9:
		c.blockCPI(-1)
		c.tick(16)
		c.repeatIfBCAndNotFound()
		return

	case 0xA2:
		c.blockINI(1)
		c.tick(16)
		return
	case 0xAA:
		c.blockINI(-1)
		c.tick(16)
		return
	case 0xB2:
		c.blockINI(1)
		c.tick(16)
		c.repeatIfB()
		return
	case 0xBA:
		c.blockINI(-1)
		c.tick(16)
		c.repeatIfB()
		return

	case 0xA3:
		c.blockOUTI(1)
		c.tick(16)
		return
	case 0xAB:
		c.blockOUTI(-1)
		c.tick(16)
		return
	case 0xB3:
		c.blockOUTI(1)
		c.tick(16)
		c.repeatIfB()
		return
	case 0xBB:
		c.blockOUTI(-1)
		c.tick(16)
		c.repeatIfB()
		return
	}

	if sub >= 0x40 && sub <= 0x7F && sub&7 == 0 {
		code := (sub >> 3) & 7
		v := c.bus.IORead(c.BC())
		c.applyInFlags(v)
		if code != 6 {
			c.writeReg8(code, v)
		}
		c.tick(12)
		return
	}
	if sub >= 0x40 && sub <= 0x7F && sub&7 == 1 {
		code := (sub >> 3) & 7
		var v byte
		if code != 6 {
			v = c.readReg8(code)
		}
		c.bus.IOWrite(c.BC(), v)
		c.tick(12)
		return
	}

	c.tick(8)
}

func (c *CPU) setIRTransferFlags() {
	c.F &^= FlagS | FlagZ | FlagH | FlagP | FlagN | FlagX | FlagY
	if c.A == 0 {
		c.F |= FlagZ
	}
	c.F |= c.A & FlagS
	if c.IFF2 {
		c.F |= FlagP
	}
	c.F |= xyFrom(c.A)
}

func (c *CPU) edStoreWord(addr, v uint16) {
	hi, lo := split16(v)
	c.bus.MemWrite(addr, lo)
	c.bus.MemWrite(addr+1, hi)
}

func (c *CPU) edLoadWord(addr uint16) uint16 {
	lo := c.bus.MemRead(addr)
	hi := c.bus.MemRead(addr + 1)
	return join16(hi, lo)
}

func (c *CPU) rrd() {
	mem := c.bus.MemRead(c.HL())
	newA := (c.A & 0xF0) | (mem & 0x0F)
	newMem := (c.A&0x0F)<<4 | (mem >> 4)
	c.bus.MemWrite(c.HL(), newMem)
	c.A = newA
	c.F &^= FlagH | FlagN
	c.setSZPXY(newA)
}

func (c *CPU) rld() {
	mem := c.bus.MemRead(c.HL())
	newA := (c.A & 0xF0) | (mem >> 4)
	newMem := (mem<<4)&0xF0 | (c.A & 0x0F)
	c.bus.MemWrite(c.HL(), newMem)
	c.A = newA
	c.F &^= FlagH | FlagN
	c.setSZPXY(newA)
}

// blockLDI implements LDI (direction=1) and LDD (direction=-1): copy
// (HL) to (DE), step both by direction, decrement BC.
func (c *CPU) blockLDI(direction int) {
	val := c.bus.MemRead(c.HL())
	c.bus.MemWrite(c.DE(), val)
	c.SetHL(c.HL() + uint16(int32(direction)))
	c.SetDE(c.DE() + uint16(int32(direction)))
	bc := c.BC() - 1
	c.SetBC(bc)

	n := c.A + val
	c.F &^= FlagH | FlagN | FlagX | FlagY
	c.SetFlag(FlagP, bc != 0)
	if n&0x02 != 0 {
		c.F |= FlagY
	}
	if n&0x08 != 0 {
		c.F |= FlagX
	}
}

// blockCPI implements CPI (direction=1) and CPD (direction=-1): compare
// A against (HL), step HL, decrement BC.
func (c *CPU) blockCPI(direction int) {
	val := c.bus.MemRead(c.HL())
	c.SetHL(c.HL() + uint16(int32(direction)))
	bc := c.BC() - 1
	c.SetBC(bc)

	a := c.A
	diff := a - val
	halfBorrow := a&0x0F < val&0x0F

	c.F &^= FlagS | FlagZ | FlagH | FlagP | FlagN | FlagX | FlagY
	c.F |= FlagN
	if diff == 0 {
		c.F |= FlagZ
	}
	c.F |= diff & FlagS
	if halfBorrow {
		c.F |= FlagH
	}
	c.SetFlag(FlagP, bc != 0)

	n := diff
	if halfBorrow {
		n--
	}
	if n&0x02 != 0 {
		c.F |= FlagY
	}
	if n&0x08 != 0 {
		c.F |= FlagX
	}
}

// blockINI implements INI (direction=1) and IND (direction=-1).
func (c *CPU) blockINI(direction int) {
	value := c.bus.IORead(c.BC())
	c.bus.MemWrite(c.HL(), value)
	c.SetHL(c.HL() + uint16(int32(direction)))
	c.B = c.B - 1

	cAdj := c.C + byte(direction)
	temp := uint16(value) + uint16(cAdj)

	c.F = 0
	if c.B&0x80 != 0 {
		c.F |= FlagS
	}
	if c.B == 0 {
		c.F |= FlagZ
	}
	c.F |= xyFrom(c.B)
	if value&0x80 != 0 {
		c.F |= FlagN
	}
	if temp > 0xFF {
		c.F |= FlagH | FlagC
	}
	if parity(byte(temp&7) ^ c.B) {
		c.F |= FlagP
	}
}

// blockOUTI implements OUTI (direction=1) and OUTD (direction=-1).
func (c *CPU) blockOUTI(direction int) {
	value := c.bus.MemRead(c.HL())
	c.SetHL(c.HL() + uint16(int32(direction)))
	c.B = c.B - 1
	c.bus.IOWrite(c.BC(), value)

	temp := uint16(value) + uint16(c.L)

	c.F = 0
	if c.B&0x80 != 0 {
		c.F |= FlagS
	}
	if c.B == 0 {
		c.F |= FlagZ
	}
	c.F |= xyFrom(c.B)
	if value&0x80 != 0 {
		c.F |= FlagN
	}
	if temp > 0xFF {
		c.F |= FlagH | FlagC
	}
	if parity(byte(temp&7) ^ c.B) {
		c.F |= FlagP
	}
}

func (c *CPU) repeatIfBC() {
	if c.BC() != 0 {
		c.PC -= 2
		c.tick(5)
	}
}

func (c *CPU) repeatIfBCAndNotFound() {
	if c.BC() != 0 && !c.Flag(FlagZ) {
		c.PC -= 2
		c.tick(5)
	}
}

func (c *CPU) repeatIfB() {
	if c.B != 0 {
		c.PC -= 2
		c.tick(5)
	}
}
