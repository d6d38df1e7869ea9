// debug.go - diagnostic formatters for test failures: a structured
// register dump, a raw memory dump, and a one-line brief form for the
// step logger.

package z80

import "fmt"

// RegisterInfo names one programmer-visible register for display or
// assertion; Group clusters related registers the way a register
// window would.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string
}

// ShowRegisters returns every register as a structured slice, in the
// conventional A,F,B,C,D,E,H,L / shadow / index / status order.
func (c *CPU) ShowRegisters() []RegisterInfo {
	return []RegisterInfo{
		{Name: "A", BitWidth: 8, Value: uint64(c.A), Group: "general"},
		{Name: "F", BitWidth: 8, Value: uint64(c.F), Group: "flags"},
		{Name: "B", BitWidth: 8, Value: uint64(c.B), Group: "general"},
		{Name: "C", BitWidth: 8, Value: uint64(c.C), Group: "general"},
		{Name: "D", BitWidth: 8, Value: uint64(c.D), Group: "general"},
		{Name: "E", BitWidth: 8, Value: uint64(c.E), Group: "general"},
		{Name: "H", BitWidth: 8, Value: uint64(c.H), Group: "general"},
		{Name: "L", BitWidth: 8, Value: uint64(c.L), Group: "general"},
		{Name: "A'", BitWidth: 8, Value: uint64(c.A2), Group: "shadow"},
		{Name: "F'", BitWidth: 8, Value: uint64(c.F2), Group: "shadow"},
		{Name: "B'", BitWidth: 8, Value: uint64(c.B2), Group: "shadow"},
		{Name: "C'", BitWidth: 8, Value: uint64(c.C2), Group: "shadow"},
		{Name: "D'", BitWidth: 8, Value: uint64(c.D2), Group: "shadow"},
		{Name: "E'", BitWidth: 8, Value: uint64(c.E2), Group: "shadow"},
		{Name: "H'", BitWidth: 8, Value: uint64(c.H2), Group: "shadow"},
		{Name: "L'", BitWidth: 8, Value: uint64(c.L2), Group: "shadow"},
		{Name: "IX", BitWidth: 16, Value: uint64(c.IX), Group: "index"},
		{Name: "IY", BitWidth: 16, Value: uint64(c.IY), Group: "index"},
		{Name: "SP", BitWidth: 16, Value: uint64(c.SP), Group: "general"},
		{Name: "PC", BitWidth: 16, Value: uint64(c.PC), Group: "general"},
		{Name: "I", BitWidth: 8, Value: uint64(c.I), Group: "status"},
		{Name: "R", BitWidth: 8, Value: uint64(c.R), Group: "status"},
		{Name: "IM", BitWidth: 8, Value: uint64(c.IM), Group: "status"},
	}
}

// GetRegister looks a single register up by its canonical name as listed
// by ShowRegisters; the match is exact and case-sensitive.
func (c *CPU) GetRegister(name string) (uint64, bool) {
	for _, reg := range c.ShowRegisters() {
		if reg.Name == name {
			return reg.Value, true
		}
	}
	return 0, false
}

// FormatBriefRegisters renders a one-line register summary for the
// step logger: PC, opcode-adjacent registers, and the flag letters
// that are currently set.
func (c *CPU) FormatBriefRegisters() string {
	return fmt.Sprintf("PC=%04X A=%02X F=%s BC=%04X DE=%04X HL=%04X SP=%04X",
		c.PC, c.A, c.formatFlags(), c.BC(), c.DE(), c.HL(), c.SP)
}

func (c *CPU) formatFlags() string {
	letters := []struct {
		mask byte
		ch   byte
	}{
		{FlagS, 'S'}, {FlagZ, 'Z'}, {FlagY, 'Y'}, {FlagH, 'H'},
		{FlagX, 'X'}, {FlagP, 'P'}, {FlagN, 'N'}, {FlagC, 'C'},
	}
	out := make([]byte, 0, 8)
	for _, l := range letters {
		if c.F&l.mask != 0 {
			out = append(out, l.ch)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}

// DumpMemory returns a hex dump of length bytes starting at start, 16
// bytes per line, for inclusion in test failure output.
func DumpMemory(mem []byte, start uint16, length int) string {
	out := ""
	for i := 0; i < length; i += 16 {
		out += fmt.Sprintf("%04X: ", int(start)+i)
		for j := 0; j < 16 && i+j < length; j++ {
			addr := int(start) + i + j
			out += fmt.Sprintf("%02X ", mem[addr%len(mem)])
		}
		out += "\n"
	}
	return out
}
