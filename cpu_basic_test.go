package z80

import "testing"

func TestNOPAdvancesPCAndCosts4TStates(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x00})
	tstates := rig.cpu.Step()
	requireEqualU16(t, "PC", rig.cpu.PC, 1)
	requireEqualInt(t, "tstates", tstates, 4)
}

func TestLDRegReg(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x78}) // LD A,B
	rig.cpu.B = 0x42
	rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x42)
}

func TestLDRegRegViaHLIsSevenTStates(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x7E}) // LD A,(HL)
	rig.cpu.SetHL(0x4000)
	rig.bus.mem[0x4000] = 0x99
	tstates := rig.cpu.Step()
	requireEqualU8(t, "A", rig.cpu.A, 0x99)
	requireEqualInt(t, "tstates", tstates, 7)
}

func TestHALTSetsHaltedAndIFFs(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x76})
	rig.cpu.Step()
	requireTrue(t, "Halted", rig.cpu.Halted)
	requireTrue(t, "IFF1 set by HALT", rig.cpu.IFF1)
	requireTrue(t, "IFF2 set by HALT", rig.cpu.IFF2)

	tstates := rig.cpu.Step()
	requireEqualInt(t, "halted step tstates", tstates, 1)
	requireEqualU16(t, "PC unchanged while halted", rig.cpu.PC, 1)
}

func TestLD16ImmediateAndIncDec16(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x21, 0x34, 0x12, 0x23, 0x2B, 0x2B}) // LD HL,1234h; INC HL; DEC HL; DEC HL
	rig.cpu.Step()
	requireEqualU16(t, "HL", rig.cpu.HL(), 0x1234)
	rig.cpu.Step()
	requireEqualU16(t, "HL after INC", rig.cpu.HL(), 0x1235)
	rig.cpu.Step()
	requireEqualU16(t, "HL after DEC", rig.cpu.HL(), 0x1234)
	rig.cpu.Step()
	requireEqualU16(t, "HL after second DEC", rig.cpu.HL(), 0x1233)
}

func TestPushPopRoundTrip(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, nil)
	rig.cpu.SP = 0xFF00
	entrySP := rig.cpu.SP
	rig.cpu.pushWord(0xBEEF)
	got := rig.cpu.popWord()
	requireEqualU16(t, "round-tripped word", got, 0xBEEF)
	requireEqualU16(t, "SP restored", rig.cpu.SP, entrySP)
}

func TestDelayedEICommitsAfterNextInstruction(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xFB, 0x00, 0x00}) // EI; NOP; NOP
	rig.cpu.Step()                                 // EI: arms PendingEI, IFF1/2 still false
	requireFalse(t, "IFF1 not yet armed", rig.cpu.IFF1)
	rig.cpu.Step() // NOP: commits EI at the end of this instruction
	requireTrue(t, "IFF1 committed", rig.cpu.IFF1)
	requireTrue(t, "IFF2 committed", rig.cpu.IFF2)
}

func TestDelayedDICommitsAfterNextInstruction(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xF3, 0x00}) // DI; NOP
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.cpu.Step() // DI: arms PendingDI
	requireTrue(t, "IFF1 still set mid-instruction", rig.cpu.IFF1)
	rig.cpu.Step() // NOP: commits DI
	requireFalse(t, "IFF1 cleared", rig.cpu.IFF1)
}

func TestRIncrementsOncePerFetchAndPreservesBit7(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0x00, 0x00})
	rig.cpu.R = 0x7F
	rig.cpu.Step()
	requireEqualU8(t, "R after first NOP", rig.cpu.R, 0x00)
	rig.cpu.Step()
	requireEqualU8(t, "R after second NOP", rig.cpu.R, 0x01)
}

func TestRGetsTwoIncrementsForPrefixedInstruction(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0, []byte{0xCB, 0x00}) // RLC B
	rig.cpu.R = 0x00
	rig.cpu.Step()
	requireEqualU8(t, "R after CB-prefixed instruction", rig.cpu.R, 0x02)
}

func TestPC16BitWraparound(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0xFFFF, []byte{0x00})
	rig.cpu.Step()
	requireEqualU16(t, "PC wraps to 0", rig.cpu.PC, 0x0000)
}
