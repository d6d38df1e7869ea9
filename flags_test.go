package z80

import "testing"

func TestAdd8HalfCarryAndOverflow(t *testing.T) {
	r := NewRegisters()
	r.A = 0x7F
	r.add8(0x01)
	requireEqualU8(t, "A", r.A, 0x80)
	requireTrue(t, "H", r.Flag(FlagH))
	requireTrue(t, "P", r.Flag(FlagP))
	requireTrue(t, "S", r.Flag(FlagS))
	requireFalse(t, "C", r.Flag(FlagC))
}

func TestAdc8WithIncomingCarry(t *testing.T) {
	r := NewRegisters()
	r.A = 0xFF
	r.SetFlag(FlagC, true)
	r.adc8(0x00)
	requireEqualU8(t, "A", r.A, 0x00)
	requireTrue(t, "Z", r.Flag(FlagZ))
	requireTrue(t, "C", r.Flag(FlagC))
	requireTrue(t, "H", r.Flag(FlagH))
}

func TestCPLeavesALeoneAndSourcesXYFromOperand(t *testing.T) {
	r := NewRegisters()
	r.A = 0x10
	r.cp(0x28) // operand has bit3 and bit5 set
	requireEqualU8(t, "A unchanged", r.A, 0x10)

	r2 := NewRegisters()
	r2.A = 0x10
	r2.cp(0x08 | 0x20) // operand bits 3 and 5 set
	requireTrue(t, "X from operand", r2.Flag(FlagX))
	requireTrue(t, "Y from operand", r2.Flag(FlagY))
}

func TestInc8SetsOverflowOnlyFrom0x7F(t *testing.T) {
	r := NewRegisters()
	res := r.inc8(0x7F)
	requireEqualU8(t, "result", res, 0x80)
	requireTrue(t, "P", r.Flag(FlagP))
	requireTrue(t, "S", r.Flag(FlagS))
}

func TestInc8LeavesCarryUntouched(t *testing.T) {
	r := NewRegisters()
	r.SetFlag(FlagC, true)
	r.inc8(0x00)
	requireTrue(t, "C preserved", r.Flag(FlagC))
}

func TestDec8SetsOverflowOnlyFrom0x80(t *testing.T) {
	r := NewRegisters()
	res := r.dec8(0x80)
	requireEqualU8(t, "result", res, 0x7F)
	requireTrue(t, "P", r.Flag(FlagP))
	requireTrue(t, "N", r.Flag(FlagN))
}

func TestDAAIdempotentOnValidBCD(t *testing.T) {
	r := NewRegisters()
	r.A = 0x45
	r.F = 0
	r.daa()
	requireEqualU8(t, "A", r.A, 0x45)
	before := r.F
	r.daa()
	requireEqualU8(t, "A stays idempotent", r.A, 0x45)
	requireEqualU8(t, "F stays idempotent", r.F, before)
}

func TestDAAStickyCarry(t *testing.T) {
	r := NewRegisters()
	r.A = 0x9A
	r.F = 0
	r.daa()
	requireTrue(t, "C set by DAA", r.Flag(FlagC))

	r.A = 0x00
	r.F = FlagC
	r.daa()
	requireTrue(t, "C stays sticky", r.Flag(FlagC))
}

func TestExAFTwiceRestoresBitExact(t *testing.T) {
	r := NewRegisters()
	r.SetAF(0xBEEF)
	r.ExAF()
	r.ExAF()
	requireEqualU16(t, "AF", r.AF(), 0xBEEF)
}

func TestRotatePrimitives(t *testing.T) {
	res, carry := rlc(0x81)
	requireEqualU8(t, "RLC result", res, 0x03)
	requireTrue(t, "RLC carry", carry)

	res, carry = rrc(0x01)
	requireEqualU8(t, "RRC result", res, 0x80)
	requireTrue(t, "RRC carry", carry)

	res, carry = sll(0x80)
	requireEqualU8(t, "SLL result", res, 0x01)
	requireTrue(t, "SLL carry", carry)
}

func TestParityTable(t *testing.T) {
	if !parity(0x00) {
		t.Fatalf("parity(0x00) = false, want true (even)")
	}
	if parity(0x01) {
		t.Fatalf("parity(0x01) = true, want false (odd)")
	}
	if !parity(0x03) {
		t.Fatalf("parity(0x03) = false, want true (even)")
	}
}
