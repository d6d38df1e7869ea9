// cpu_cb.go - the 0xCB prefix table: rotate/shift, BIT, RES, SET over
// the eight 8-bit register-code operands.

package z80

// dispatchCB executes a CB-prefixed instruction. The CB byte itself
// costs an extra R increment (already applied by the fetchOpcode call in
// Step that consumed the 0xCB byte); this call fetches and accounts for
// the sub-opcode.
func (c *CPU) dispatchCB() {
	sub := c.fetchOpcode()
	reg := sub & 7
	memOperand := reg == 6

	switch {
	case sub < 0x40:
		kind := (sub >> 3) & 7
		v := c.readReg8(reg)
		res, carry := cbRotateShift(kind, v, c.Flag(FlagC))
		c.writeReg8(reg, res)
		c.applyRotateFlags(res, carry)
		if memOperand {
			c.tick(15)
		} else {
			c.tick(8)
		}

	case sub < 0x80:
		bit := (sub >> 3) & 7
		v := c.readReg8(reg)
		c.bitTest(bit, v, memOperand)
		if memOperand {
			c.tick(12)
		} else {
			c.tick(8)
		}

	case sub < 0xC0:
		bit := (sub >> 3) & 7
		v := c.readReg8(reg) &^ (1 << bit)
		c.writeReg8(reg, v)
		if memOperand {
			c.tick(15)
		} else {
			c.tick(8)
		}

	default:
		bit := (sub >> 3) & 7
		v := c.readReg8(reg) | (1 << bit)
		c.writeReg8(reg, v)
		if memOperand {
			c.tick(15)
		} else {
			c.tick(8)
		}
	}
}

// cbRotateShift applies one of the eight CB rotate/shift kinds (bits
// 5-3 of the sub-opcode: RLC,RRC,RL,RR,SLA,SRA,SLL,SRL).
func cbRotateShift(kind byte, v byte, carryIn bool) (res byte, carry bool) {
	switch kind {
	case 0:
		return rlc(v)
	case 1:
		return rrc(v)
	case 2:
		return rl(v, carryIn)
	case 3:
		return rr(v, carryIn)
	case 4:
		return sla(v)
	case 5:
		return sra(v)
	case 6:
		return sll(v)
	default:
		return srl(v)
	}
}

// bitTest sets flags for BIT n,operand: Z <- !bit, P mirrors Z, H always
// set, N always clear. S mirrors Z when testing bit 7 (and is clear
// otherwise); this, like the X/Y placeholder rule below, is the
// literal bit_number-keyed formula this interpreter models rather than
// a copy of the tested byte's own bit 7. X/Y follow the documented
// placeholder rule (derived from the bit number and whether the tested
// bit is set, since the true source is an internal latch this
// interpreter does not model) rather than the tested byte's own bits:
// Y = 1 iff bit==5 and the bit is set, X = 1 iff bit==3 and the bit is
// set.
func (c *CPU) bitTest(bit byte, v byte, memOperand bool) {
	set := v&(1<<bit) != 0
	zero := !set
	c.F &^= FlagS | FlagZ | FlagP | FlagX | FlagY
	c.F |= FlagH
	c.F &^= FlagN
	if zero {
		c.F |= FlagZ | FlagP
	}
	if bit == 7 && zero {
		c.F |= FlagS
	}
	if bit == 5 && set {
		c.F |= FlagY
	}
	if bit == 3 && set {
		c.F |= FlagX
	}
	_ = memOperand
}
