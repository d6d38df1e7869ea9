package z80

import "testing"

func TestALUAddViaOpcode(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x80}) // ADD A,B
	rig.cpu.A = 0x0F
	rig.cpu.B = 0x01
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x10)
	requireTrue(t, "H", rig.cpu.Flag(FlagH))
}

func TestALUSubViaOpcode(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x90}) // SUB B
	rig.cpu.A = 0x10
	rig.cpu.B = 0x01
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x0F)
	requireTrue(t, "N", rig.cpu.Flag(FlagN))
}

func TestALUImmediate(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xC6, 0x01}) // ADD A,1
	rig.cpu.A = 0xFF
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x00)
	requireTrue(t, "Z", rig.cpu.Flag(FlagZ))
	requireTrue(t, "C", rig.cpu.Flag(FlagC))
}

func TestALUViaMemoryIsSevenTStates(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xB6}) // OR (HL)
	rig.cpu.SetHL(0x4000)
	rig.bus.mem[0x4000] = 0x0F
	rig.cpu.A = 0xF0
	tstates := rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0xFF)
	requireEqualInt(t, "tstates", tstates, 7)
}

func TestCPPreservesAAndUsesOperandXY(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xFE, 0x28}) // CP 0x28 (bits 3 and 5 set)
	rig.cpu.A = 0x28
	rig.cpu.Step()
	requireEqualU8(t, "A unchanged", rig.cpu.A, 0x28)
	requireTrue(t, "Z", rig.cpu.Flag(FlagZ))
	// The difference is 0, so X/Y can only be set if taken from the operand.
	requireTrue(t, "X from operand", rig.cpu.Flag(FlagX))
	requireTrue(t, "Y from operand", rig.cpu.Flag(FlagY))
}

func TestANDSetsHAlwaysClearsCAndN(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xA0}) // AND B
	rig.cpu.A = 0xFF
	rig.cpu.B = 0x0F
	rig.cpu.SetFlag(FlagC, true)
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x0F)
	requireTrue(t, "H", rig.cpu.Flag(FlagH))
	requireFalse(t, "C cleared", rig.cpu.Flag(FlagC))
}

func TestAccumulatorRotates(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x07}) // RLCA
	rig.cpu.A = 0x81
	rig.cpu.F = FlagZ | FlagS // should be preserved by RLCA
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x03)
	requireTrue(t, "C", rig.cpu.Flag(FlagC))
	requireTrue(t, "Z preserved", rig.cpu.Flag(FlagZ))
	requireTrue(t, "S preserved", rig.cpu.Flag(FlagS))
}

func TestCCFTogglesCarryAndSetsHFromOldCarry(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x3F}) // CCF
	rig.cpu.SetFlag(FlagC, true)
	rig.cpu.Step()
	requireFalse(t, "C toggled off", rig.cpu.Flag(FlagC))
	requireTrue(t, "H from old C", rig.cpu.Flag(FlagH))
}

func TestSCFSetsCarryAndClearsHN(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x37})
	rig.cpu.F = FlagH | FlagN
	rig.cpu.Step()
	requireTrue(t, "C", rig.cpu.Flag(FlagC))
	requireFalse(t, "H", rig.cpu.Flag(FlagH))
	requireFalse(t, "N", rig.cpu.Flag(FlagN))
}

func TestCPLComplementsAAndSetsHN(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x2F})
	rig.cpu.A = 0x0F
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0xF0)
	requireTrue(t, "H", rig.cpu.Flag(FlagH))
	requireTrue(t, "N", rig.cpu.Flag(FlagN))
}

func TestAddHLSetsOnlyHCN(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x09}) // ADD HL,BC
	rig.cpu.SetHL(0x0FFF)
	rig.cpu.SetBC(0x0001)
	rig.cpu.F = FlagS | FlagZ | FlagP // should be preserved
	rig.cpu.Step()
	requireEqualU16(t, "HL", rig.cpu.HL(), 0x1000)
	requireTrue(t, "H", rig.cpu.Flag(FlagH))
	requireTrue(t, "S preserved", rig.cpu.Flag(FlagS))
	requireTrue(t, "Z preserved", rig.cpu.Flag(FlagZ))
}
