// cpu_ddfd.go - the 0xDD/0xFD prefix tables (IX/IY indexed addressing)
// and the 4-byte 0xDDCB/0xFDCB indexed bit-operation group. FD reuses
// every DD handler by temporarily flipping useIY so the shared
// accessors in cpu.go (ixy/setIxy/ixyHigh/...) resolve to IY instead of
// IX; this is the swap-in/swap-out approach, kept observationally
// identical to running two duplicated tables.

package z80

// dispatchIndexed executes a DD- or FD-prefixed instruction.
func (c *CPU) dispatchIndexed(useIY bool) {
	prevUseIY := c.useIY
	c.useIY = useIY
	defer func() { c.useIY = prevUseIY }()

	sub := c.fetchOpcode()

	if sub == 0xCB {
		c.dispatchIndexedCB()
		return
	}
	if sub >= 0x40 && sub <= 0x7F && sub != 0x76 {
		c.indexedLD(sub)
		return
	}
	if sub >= 0x80 && sub <= 0xBF {
		c.indexedALU(sub)
		return
	}

	switch sub {
	case 0x09:
		c.setIxy(c.ixyAdd(c.BC()))
		c.tick(15)
	case 0x19:
		c.setIxy(c.ixyAdd(c.DE()))
		c.tick(15)
	case 0x29:
		c.setIxy(c.ixyAdd(c.ixy()))
		c.tick(15)
	case 0x39:
		c.setIxy(c.ixyAdd(c.SP))
		c.tick(15)

	case 0x21:
		c.setIxy(c.fetchWord())
		c.tick(14)
	case 0x22:
		addr := c.fetchWord()
		c.edStoreWord(addr, c.ixy())
		c.tick(20)
	case 0x2A:
		addr := c.fetchWord()
		c.setIxy(c.edLoadWord(addr))
		c.tick(20)
	case 0x23:
		c.setIxy(c.ixy() + 1)
		c.tick(10)
	case 0x2B:
		c.setIxy(c.ixy() - 1)
		c.tick(10)

	case 0x24:
		c.setIxyHigh(c.inc8(c.ixyHigh()))
		c.tick(8)
	case 0x2C:
		c.setIxyLow(c.inc8(c.ixyLow()))
		c.tick(8)
	case 0x25:
		c.setIxyHigh(c.dec8(c.ixyHigh()))
		c.tick(8)
	case 0x2D:
		c.setIxyLow(c.dec8(c.ixyLow()))
		c.tick(8)
	case 0x26:
		c.setIxyHigh(c.fetchByte())
		c.tick(11)
	case 0x2E:
		c.setIxyLow(c.fetchByte())
		c.tick(11)

	case 0x34:
		addr := c.ixyAddr()
		c.bus.MemWrite(addr, c.inc8(c.bus.MemRead(addr)))
		c.tick(23)
	case 0x35:
		addr := c.ixyAddr()
		c.bus.MemWrite(addr, c.dec8(c.bus.MemRead(addr)))
		c.tick(23)
	case 0x36:
		addr := c.ixyAddr()
		v := c.fetchByte()
		c.bus.MemWrite(addr, v)
		c.tick(19)

	case 0xE1:
		c.setIxy(c.popWord())
		c.tick(14)
	case 0xE5:
		c.pushWord(c.ixy())
		c.tick(15)
	case 0xE3:
		lo := c.bus.MemRead(c.SP)
		hi := c.bus.MemRead(c.SP + 1)
		oldHi, oldLo := split16(c.ixy())
		c.bus.MemWrite(c.SP, oldLo)
		c.bus.MemWrite(c.SP+1, oldHi)
		c.setIxy(join16(hi, lo))
		c.tick(23)
	case 0xE9:
		c.PC = c.ixy()
		c.tick(8)
	case 0xF9:
		c.SP = c.ixy()
		c.tick(10)

	default:
		// DD/FD has no effect on this opcode: back PC (and the R bump
		// this fetch charged) up by one so the next Step() re-fetches
		// and re-decodes this same byte unprefixed. Only the wasted
		// prefix fetch is charged here; the opcode's own cost and
		// effects land in that next, separate Step() call.
		c.PC--
		c.R = (c.R & 0x80) | ((c.R - 1) & 0x7F)
		c.tick(4)
	}
}

// indexedLD handles the 0x40-0x7F (less 0x76) group under a DD/FD
// prefix. When either side of the move is the (HL)-coded register 6 it
// becomes (IX+d)/(IY+d); the *other* side is always the literal H/L/etc
// register, never substituted with IXH/IXL — this matches real
// hardware and is why readReg8/writeReg8 (not ixyReg8) are used there.
func (c *CPU) indexedLD(sub byte) {
	dest := (sub >> 3) & 7
	src := sub & 7

	if dest == 6 {
		addr := c.ixyAddr()
		c.bus.MemWrite(addr, c.readReg8(src))
		c.tick(19)
		return
	}
	if src == 6 {
		addr := c.ixyAddr()
		c.writeReg8(dest, c.bus.MemRead(addr))
		c.tick(19)
		return
	}
	c.setIxyReg8(dest, c.ixyReg8(src))
	c.tick(8)
}

// indexedALU handles the 0x80-0xBF group under a DD/FD prefix.
func (c *CPU) indexedALU(sub byte) {
	op := aluOp((sub >> 3) & 7)
	src := sub & 7

	if src == 6 {
		addr := c.ixyAddr()
		c.performALU(op, c.bus.MemRead(addr))
		c.tick(19)
		return
	}
	c.performALU(op, c.ixyReg8(src))
	c.tick(8)
}

// ixyAdd performs ixy() <- ixy() + operand, Y/X flags from the high
// byte of the result; mirrors hlAdd but targets the active index
// register instead of HL.
func (c *CPU) ixyAdd(operand uint16) uint16 {
	base := c.ixy()
	sum := uint32(base) + uint32(operand)
	res := uint16(sum)
	c.F &^= FlagH | FlagN | FlagC | FlagX | FlagY
	if (base&0x0FFF)+(operand&0x0FFF) > 0x0FFF {
		c.F |= FlagH
	}
	if sum > 0xFFFF {
		c.F |= FlagC
	}
	c.F |= byte(res>>8) & (FlagX | FlagY)
	return res
}

// dispatchIndexedCB executes the 4-byte DDCB/FDCB group: displacement
// byte, then sub-opcode. Shift/rotate/RES/SET write the transformed
// byte back to (ixy+d) and, when the sub-opcode's register field isn't
// 6, also mirror it into that 8-bit register — the well-known
// undocumented side effect of this encoding.
func (c *CPU) dispatchIndexedCB() {
	d := c.fetchSignedByte()
	addr := uint16(int32(c.ixy()) + int32(d))
	sub := c.fetchByte()
	reg := sub & 7

	switch {
	case sub < 0x40:
		kind := (sub >> 3) & 7
		v := c.bus.MemRead(addr)
		res, carry := cbRotateShift(kind, v, c.Flag(FlagC))
		c.bus.MemWrite(addr, res)
		if reg != 6 {
			c.writeReg8(reg, res)
		}
		c.applyRotateFlags(res, carry)
		c.tick(23)

	case sub < 0x80:
		bit := (sub >> 3) & 7
		v := c.bus.MemRead(addr)
		c.bitTest(bit, v, true)
		c.tick(20)

	case sub < 0xC0:
		bit := (sub >> 3) & 7
		v := c.bus.MemRead(addr) &^ (1 << bit)
		c.bus.MemWrite(addr, v)
		if reg != 6 {
			c.writeReg8(reg, v)
		}
		c.tick(23)

	default:
		bit := (sub >> 3) & 7
		v := c.bus.MemRead(addr) | (1 << bit)
		c.bus.MemWrite(addr, v)
		if reg != 6 {
			c.writeReg8(reg, v)
		}
		c.tick(23)
	}
}
