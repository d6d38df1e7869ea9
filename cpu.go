// cpu.go - the decoder/interpreter. CPU embeds Registers (the
// programmer-visible state) and drives a Bus to fetch opcodes and
// operands. Dispatch is a set of exhaustive switches over the opcode
// byte rather than closure tables: the behaviour is identical either
// way, and a switch keeps the ~256-way primary/CB/ED spread readable
// in one place per prefix group.

package z80

// CPU is a single Z80 core. It is not safe for concurrent use; callers
// run it from one goroutine, matching the harness's single-threaded
// execution model.
type CPU struct {
	Registers

	bus Bus

	// useIY is true while executing the body of a DD/FD-prefixed
	// instruction that targets IY; the shared index-register accessors
	// consult it instead of duplicating the DD handler table for FD.
	useIY bool

	cycles int
}

// NewCPU returns a CPU wired to bus, with registers at power-on
// defaults.
func NewCPU(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

func (c *CPU) tick(n int) { c.cycles += n }

func (c *CPU) fetchOpcode() byte {
	op := c.bus.MemRead(c.PC)
	c.PC++
	c.IncrementR()
	return op
}

func (c *CPU) fetchByte() byte {
	v := c.bus.MemRead(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetchSignedByte() int8 { return int8(c.fetchByte()) }

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return join16(hi, lo)
}

func (c *CPU) pushWord(v uint16) {
	hi, lo := split16(v)
	c.SP--
	c.bus.MemWrite(c.SP, hi)
	c.SP--
	c.bus.MemWrite(c.SP, lo)
}

func (c *CPU) popWord() uint16 {
	lo := c.bus.MemRead(c.SP)
	c.SP++
	hi := c.bus.MemRead(c.SP)
	c.SP++
	return join16(hi, lo)
}

// Step executes one instruction (recursively consuming any prefix
// bytes) and returns the T-states it consumed. While halted it leaves
// all state untouched and returns a fixed cost of 1.
func (c *CPU) Step() int {
	if c.Halted {
		return 1
	}

	c.cycles = 0
	diArmed := c.PendingDI
	eiArmed := c.PendingEI

	opcode := c.fetchOpcode()
	c.dispatchPrimary(opcode)

	if diArmed {
		c.IFF1 = false
		c.IFF2 = false
		c.PendingDI = false
	}
	if eiArmed {
		c.IFF1 = true
		c.IFF2 = true
		c.PendingEI = false
	}

	c.CycleCount += c.cycles
	return c.cycles
}

// Interrupt delivers a non-maskable or maskable interrupt. dataByte is
// the bus value supplied during the acknowledge cycle: ignored for NMI,
// the restart/low-vector byte in mode 0/2. Returns the T-states
// consumed, or 0 if a maskable interrupt was rejected because IFF1 was
// clear.
func (c *CPU) Interrupt(nonMaskable bool, dataByte byte) int {
	c.cycles = 0

	if nonMaskable {
		c.Halted = false
		c.IFF2 = c.IFF1
		c.IFF1 = false
		c.IncrementR()
		c.pushWord(c.PC)
		c.PC = 0x0066
		c.tick(11)
		c.LastInstruction = LastINT
		c.CycleCount += c.cycles
		return c.cycles
	}

	if !c.IFF1 {
		return 0
	}
	c.Halted = false
	c.IFF1 = false
	c.IFF2 = false
	c.IncrementR()

	switch c.IM {
	case 0:
		c.dispatchPrimary(dataByte)
		c.tick(2)
	case 1:
		c.pushWord(c.PC)
		c.PC = 0x0038
		c.tick(13)
	case 2:
		c.pushWord(c.PC)
		vector := join16(c.I, dataByte)
		lo := c.bus.MemRead(vector)
		hi := c.bus.MemRead(vector + 1)
		c.PC = join16(hi, lo)
		c.tick(19)
	}

	c.LastInstruction = LastINT
	c.CycleCount += c.cycles
	return c.cycles
}

// --- 8-bit register-code helpers (B,C,D,E,H,L,(HL),A ordering) ---

func (c *CPU) readReg8(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.bus.MemRead(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) writeReg8(code byte, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.bus.MemWrite(c.HL(), v)
	default:
		c.A = v
	}
}

// ixy returns the active index register (IX unless an FD prefix is in
// effect) and setIxy writes it back.
func (c *CPU) ixy() uint16 {
	if c.useIY {
		return c.IY
	}
	return c.IX
}

func (c *CPU) setIxy(v uint16) {
	if c.useIY {
		c.IY = v
	} else {
		c.IX = v
	}
}

func (c *CPU) ixyHigh() byte { return byte(c.ixy() >> 8) }
func (c *CPU) ixyLow() byte  { return byte(c.ixy()) }

func (c *CPU) setIxyHigh(v byte) { c.setIxy((c.ixy() & 0x00FF) | uint16(v)<<8) }
func (c *CPU) setIxyLow(v byte)  { c.setIxy((c.ixy() & 0xFF00) | uint16(v)) }

// ixyReg8/setIxyReg8 read/write an 8-bit operand of a DD/FD-prefixed
// instruction for any register code except 6 ((HL)/(IX+d)), which the
// caller must special-case itself (it needs the displacement byte and,
// per real hardware, leaves the *other* operand un-substituted).
func (c *CPU) ixyReg8(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.ixyHigh()
	case 5:
		return c.ixyLow()
	default:
		return c.A
	}
}

func (c *CPU) setIxyReg8(code byte, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.setIxyHigh(v)
	case 5:
		c.setIxyLow(v)
	default:
		c.A = v
	}
}

// ixyAddr fetches the instruction's displacement byte and returns
// ixy()+d mod 65536. Must be called at most once per instruction.
func (c *CPU) ixyAddr() uint16 {
	d := c.fetchSignedByte()
	return uint16(int32(c.ixy()) + int32(d))
}

type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

func (c *CPU) performALU(op aluOp, v byte) {
	switch op {
	case aluAdd:
		c.add8(v)
	case aluAdc:
		c.adc8(v)
	case aluSub:
		c.sub8(v)
	case aluSbc:
		c.sbc8(v)
	case aluAnd:
		c.and8(v)
	case aluXor:
		c.xor8(v)
	case aluOr:
		c.or8(v)
	case aluCp:
		c.cp(v)
	}
}

// condition evaluates one of the eight 3-bit condition codes used by
// JP/JR/CALL/RET: NZ,Z,NC,C,PO,PE,P,M.
func (c *CPU) condition(code byte) bool {
	switch code {
	case 0:
		return !c.Flag(FlagZ)
	case 1:
		return c.Flag(FlagZ)
	case 2:
		return !c.Flag(FlagC)
	case 3:
		return c.Flag(FlagC)
	case 4:
		return !c.Flag(FlagP)
	case 5:
		return c.Flag(FlagP)
	case 6:
		return !c.Flag(FlagS)
	default:
		return c.Flag(FlagS)
	}
}

// dispatchPrimary executes one unprefixed instruction (or recurses into
// a prefix group) starting from its already-fetched opcode byte.
func (c *CPU) dispatchPrimary(opcode byte) {
	c.LastInstruction = LastNone

	switch {
	case opcode == 0x76: // HALT
		c.Halted = true
		c.IFF1 = true
		c.IFF2 = true
		c.tick(4)
		return
	case opcode >= 0x40 && opcode <= 0x7F:
		dest := (opcode >> 3) & 7
		src := opcode & 7
		v := c.readReg8(src)
		c.writeReg8(dest, v)
		if dest == 6 || src == 6 {
			c.tick(7)
		} else {
			c.tick(4)
		}
		return
	case opcode >= 0x80 && opcode <= 0xBF:
		op := aluOp((opcode >> 3) & 7)
		src := opcode & 7
		v := c.readReg8(src)
		c.performALU(op, v)
		if src == 6 {
			c.tick(7)
		} else {
			c.tick(4)
		}
		return
	}

	switch opcode {
	case 0x00:
		c.tick(4)
	case 0xCB:
		c.dispatchCB()
	case 0xED:
		c.dispatchED()
	case 0xDD:
		c.dispatchIndexed(false)
	case 0xFD:
		c.dispatchIndexed(true)

	case 0x01:
		c.SetBC(c.fetchWord())
		c.tick(10)
	case 0x11:
		c.SetDE(c.fetchWord())
		c.tick(10)
	case 0x21:
		c.SetHL(c.fetchWord())
		c.tick(10)
	case 0x31:
		c.SP = c.fetchWord()
		c.tick(10)

	case 0x02:
		c.bus.MemWrite(c.BC(), c.A)
		c.tick(7)
	case 0x12:
		c.bus.MemWrite(c.DE(), c.A)
		c.tick(7)
	case 0x0A:
		c.A = c.bus.MemRead(c.BC())
		c.tick(7)
	case 0x1A:
		c.A = c.bus.MemRead(c.DE())
		c.tick(7)

	case 0x22:
		addr := c.fetchWord()
		lo, hi := c.L, c.H
		c.bus.MemWrite(addr, lo)
		c.bus.MemWrite(addr+1, hi)
		c.tick(16)
	case 0x2A:
		addr := c.fetchWord()
		lo := c.bus.MemRead(addr)
		hi := c.bus.MemRead(addr + 1)
		c.H, c.L = hi, lo
		c.tick(16)
	case 0x32:
		addr := c.fetchWord()
		c.bus.MemWrite(addr, c.A)
		c.tick(13)
	case 0x3A:
		addr := c.fetchWord()
		c.A = c.bus.MemRead(addr)
		c.tick(13)

	case 0x03:
		c.SetBC(c.BC() + 1)
		c.tick(6)
	case 0x13:
		c.SetDE(c.DE() + 1)
		c.tick(6)
	case 0x23:
		c.SetHL(c.HL() + 1)
		c.tick(6)
	case 0x33:
		c.SP++
		c.tick(6)
	case 0x0B:
		c.SetBC(c.BC() - 1)
		c.tick(6)
	case 0x1B:
		c.SetDE(c.DE() - 1)
		c.tick(6)
	case 0x2B:
		c.SetHL(c.HL() - 1)
		c.tick(6)
	case 0x3B:
		c.SP--
		c.tick(6)

	case 0x09:
		c.SetHL(c.hlAdd(c.BC()))
		c.tick(11)
	case 0x19:
		c.SetHL(c.hlAdd(c.DE()))
		c.tick(11)
	case 0x29:
		c.SetHL(c.hlAdd(c.HL()))
		c.tick(11)
	case 0x39:
		c.SetHL(c.hlAdd(c.SP))
		c.tick(11)

	case 0x04:
		c.B = c.inc8(c.B)
		c.tick(4)
	case 0x0C:
		c.C = c.inc8(c.C)
		c.tick(4)
	case 0x14:
		c.D = c.inc8(c.D)
		c.tick(4)
	case 0x1C:
		c.E = c.inc8(c.E)
		c.tick(4)
	case 0x24:
		c.H = c.inc8(c.H)
		c.tick(4)
	case 0x2C:
		c.L = c.inc8(c.L)
		c.tick(4)
	case 0x3C:
		c.A = c.inc8(c.A)
		c.tick(4)
	case 0x34:
		addr := c.HL()
		c.bus.MemWrite(addr, c.inc8(c.bus.MemRead(addr)))
		c.tick(11)

	case 0x05:
		c.B = c.dec8(c.B)
		c.tick(4)
	case 0x0D:
		c.C = c.dec8(c.C)
		c.tick(4)
	case 0x15:
		c.D = c.dec8(c.D)
		c.tick(4)
	case 0x1D:
		c.E = c.dec8(c.E)
		c.tick(4)
	case 0x25:
		c.H = c.dec8(c.H)
		c.tick(4)
	case 0x2D:
		c.L = c.dec8(c.L)
		c.tick(4)
	case 0x3D:
		c.A = c.dec8(c.A)
		c.tick(4)
	case 0x35:
		addr := c.HL()
		c.bus.MemWrite(addr, c.dec8(c.bus.MemRead(addr)))
		c.tick(11)

	case 0x06:
		c.B = c.fetchByte()
		c.tick(7)
	case 0x0E:
		c.C = c.fetchByte()
		c.tick(7)
	case 0x16:
		c.D = c.fetchByte()
		c.tick(7)
	case 0x1E:
		c.E = c.fetchByte()
		c.tick(7)
	case 0x26:
		c.H = c.fetchByte()
		c.tick(7)
	case 0x2E:
		c.L = c.fetchByte()
		c.tick(7)
	case 0x3E:
		c.A = c.fetchByte()
		c.tick(7)
	case 0x36:
		v := c.fetchByte()
		c.bus.MemWrite(c.HL(), v)
		c.tick(10)

	case 0x07:
		res, carry := rlc(c.A)
		c.A = res
		c.applyAccRotateFlags(carry)
		c.tick(4)
	case 0x0F:
		res, carry := rrc(c.A)
		c.A = res
		c.applyAccRotateFlags(carry)
		c.tick(4)
	case 0x17:
		res, carry := rl(c.A, c.Flag(FlagC))
		c.A = res
		c.applyAccRotateFlags(carry)
		c.tick(4)
	case 0x1F:
		res, carry := rr(c.A, c.Flag(FlagC))
		c.A = res
		c.applyAccRotateFlags(carry)
		c.tick(4)

	case 0x27:
		c.daa()
		c.tick(4)
	case 0x2F:
		c.A = ^c.A
		c.F |= FlagH | FlagN
		c.F = (c.F &^ (FlagX | FlagY)) | xyFrom(c.A)
		c.tick(4)
	case 0x37:
		c.F &^= FlagH | FlagN
		c.F |= FlagC
		c.F = (c.F &^ (FlagX | FlagY)) | xyFrom(c.A)
		c.tick(4)
	case 0x3F:
		h := c.Flag(FlagC)
		c.F &^= FlagN
		if h {
			c.F |= FlagH
		} else {
			c.F &^= FlagH
		}
		c.SetFlag(FlagC, !h)
		c.F = (c.F &^ (FlagX | FlagY)) | xyFrom(c.A)
		c.tick(4)

	case 0x08:
		c.ExAF()
		c.tick(4)
	case 0xD9:
		c.Exx()
		c.tick(4)
	case 0xEB:
		c.H, c.D = c.D, c.H
		c.L, c.E = c.E, c.L
		c.tick(4)
	case 0xE3:
		lo := c.bus.MemRead(c.SP)
		hi := c.bus.MemRead(c.SP + 1)
		c.bus.MemWrite(c.SP, c.L)
		c.bus.MemWrite(c.SP+1, c.H)
		c.H, c.L = hi, lo
		c.tick(19)
	case 0xF9:
		c.SP = c.HL()
		c.tick(6)

	case 0x18:
		d := c.fetchSignedByte()
		c.PC = uint16(int32(c.PC) + int32(d))
		c.tick(12)
	case 0x10:
		c.B--
		d := c.fetchSignedByte()
		if c.B != 0 {
			c.PC = uint16(int32(c.PC) + int32(d))
			c.tick(13)
		} else {
			c.tick(8)
		}

	case 0x20, 0x28, 0x30, 0x38:
		code := (opcode >> 3) & 3
		d := c.fetchSignedByte()
		if c.condition(code) {
			c.PC = uint16(int32(c.PC) + int32(d))
			c.tick(12)
		} else {
			c.tick(7)
		}

	case 0xC3:
		c.PC = c.fetchWord()
		c.tick(10)
	case 0xE9:
		c.PC = c.HL()
		c.tick(4)
	case 0xC2, 0xCA, 0xD2, 0xDA, 0xE2, 0xEA, 0xF2, 0xFA:
		code := (opcode >> 3) & 7
		addr := c.fetchWord()
		if c.condition(code) {
			c.PC = addr
		}
		c.tick(10)

	case 0xCD:
		addr := c.fetchWord()
		c.pushWord(c.PC)
		c.PC = addr
		c.LastInstruction = LastCall
		c.tick(17)
	case 0xC4, 0xCC, 0xD4, 0xDC, 0xE4, 0xEC, 0xF4, 0xFC:
		code := (opcode >> 3) & 7
		addr := c.fetchWord()
		if c.condition(code) {
			c.pushWord(c.PC)
			c.PC = addr
			c.LastInstruction = LastCall
			c.tick(17)
		} else {
			c.tick(10)
		}

	case 0xC9:
		c.PC = c.popWord()
		c.LastInstruction = LastRET
		c.tick(10)
	case 0xC0, 0xC8, 0xD0, 0xD8, 0xE0, 0xE8, 0xF0, 0xF8:
		code := (opcode >> 3) & 7
		if c.condition(code) {
			c.PC = c.popWord()
			c.LastInstruction = LastRET
			c.tick(11)
		} else {
			c.tick(5)
		}

	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		addr := uint16(opcode & 0x38)
		c.pushWord(c.PC)
		c.PC = addr
		c.LastInstruction = LastRST
		c.tick(11)

	case 0xC1:
		c.SetBC(c.popWord())
		c.tick(10)
	case 0xD1:
		c.SetDE(c.popWord())
		c.tick(10)
	case 0xE1:
		c.SetHL(c.popWord())
		c.tick(10)
	case 0xF1:
		c.SetAF(c.popWord())
		c.tick(10)
	case 0xC5:
		c.pushWord(c.BC())
		c.tick(11)
	case 0xD5:
		c.pushWord(c.DE())
		c.tick(11)
	case 0xE5:
		c.pushWord(c.HL())
		c.tick(11)
	case 0xF5:
		c.pushWord(c.AF())
		c.tick(11)

	case 0xC6:
		c.add8(c.fetchByte())
		c.tick(7)
	case 0xCE:
		c.adc8(c.fetchByte())
		c.tick(7)
	case 0xD6:
		c.sub8(c.fetchByte())
		c.tick(7)
	case 0xDE:
		c.sbc8(c.fetchByte())
		c.tick(7)
	case 0xE6:
		c.and8(c.fetchByte())
		c.tick(7)
	case 0xEE:
		c.xor8(c.fetchByte())
		c.tick(7)
	case 0xF6:
		c.or8(c.fetchByte())
		c.tick(7)
	case 0xFE:
		c.cp(c.fetchByte())
		c.tick(7)

	case 0xD3:
		port := c.fetchByte()
		c.bus.IOWrite(join16(c.A, port), c.A)
		c.tick(11)
	case 0xDB:
		port := c.fetchByte()
		c.A = c.bus.IORead(join16(c.A, port))
		c.tick(11)

	case 0xF3:
		c.PendingDI = true
		c.PendingEI = false
		c.tick(4)
	case 0xFB:
		c.PendingEI = true
		c.PendingDI = false
		c.tick(4)

	default:
		c.tick(4)
	}
}
