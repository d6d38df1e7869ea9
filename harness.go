// harness.go - the test harness: owns a CPU, a 64 KiB backing memory,
// a symbol table, a breakpoint set, a step-mock chain, and optional
// bus hooks. It is the one mutable collaborator a test scenario drives
// directly; the run loop lives here.

package z80

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulhankin/z80asm"
	"github.com/paulhankin/z80asm/z80io"
)

// DefaultMaxSteps bounds a run loop with no explicit step budget.
const DefaultMaxSteps = 10_000_000

// MemorySnapshot is what SaveMemory/LoadMemory exchange: a copy of
// backing memory plus the symbol table at the time of capture.
type MemorySnapshot struct {
	Memory  [65536]byte
	Symbols map[string]uint16
}

// RunOptions configures Run/Call. Steps defaults to DefaultMaxSteps
// when zero. Coverage, if non-nil, is bumped once per executed PC.
type RunOptions struct {
	Steps    int
	Call     bool
	SP       any
	Coverage map[uint16]int
	Log      bool
}

// RunResult is the triple a run loop reports.
type RunResult struct {
	Instructions int
	TStates      int
	Coverage     map[uint16]int
}

// Harness wires a CPU to 64 KiB of backing memory with optional hooks,
// a symbol table, a breakpoint set (via its StepMockChain), and an
// assembler collaborator for Compile/CompileFile.
type Harness struct {
	CPU     *CPU
	Memory  [65536]byte
	Symbols map[string]uint16
	Mocks   *StepMockChain

	DefaultCallSP uint16

	OnMemRead  MemReadHook
	OnMemWrite MemWriteHook
	OnIORead   IOReadHook
	OnIOWrite  IOWriteHook

	assembler Assembler
}

// NewHarness returns a Harness with a fresh CPU, zeroed memory, and the
// given assembler collaborator (pass NewDefaultAssembler() for the
// real github.com/paulhankin/z80asm-backed implementation).
func NewHarness(asm Assembler) *Harness {
	h := &Harness{
		Symbols:       make(map[string]uint16),
		Mocks:         NewStepMockChain(),
		DefaultCallSP: 0xFF00,
		assembler:     asm,
	}
	h.CPU = NewCPU(h)
	return h
}

// --- Bus implementation: Harness is its own CPU's bus collaborator ---

func (h *Harness) MemRead(addr uint16) byte {
	if h.OnMemRead != nil {
		if v, ok := h.OnMemRead(addr); ok {
			return v
		}
	}
	return h.Memory[addr]
}

func (h *Harness) MemWrite(addr uint16, value byte) {
	if h.OnMemWrite != nil && h.OnMemWrite(addr, value) {
		return
	}
	h.Memory[addr] = value
}

func (h *Harness) IORead(port uint16) byte {
	if h.OnIORead != nil {
		return h.OnIORead(port)
	}
	return 0
}

func (h *Harness) IOWrite(port uint16, value byte) {
	if h.OnIOWrite != nil {
		h.OnIOWrite(port, value)
	}
}

// resolve turns a number or case-insensitive symbol into an address.
func (h *Harness) resolve(addr any) (uint16, error) {
	switch v := addr.(type) {
	case uint16:
		return v, nil
	case int:
		return uint16(v), nil
	case string:
		if sym, ok := h.Symbols[strings.ToUpper(v)]; ok {
			return sym, nil
		}
		return 0, &ErrSymbolNotFound{Symbol: v}
	default:
		return 0, &ErrSymbolNotFound{Symbol: ""}
	}
}

// GetAddress resolves addr (a number or case-insensitive symbol) to an
// absolute address.
func (h *Harness) GetAddress(addr any) (uint16, error) { return h.resolve(addr) }

// Load writes bytes into backing memory starting at the resolved
// address.
func (h *Harness) Load(data []byte, start any) error {
	base, err := h.resolve(start)
	if err != nil {
		return err
	}
	for i, b := range data {
		h.Memory[uint16(int(base)+i)] = b
	}
	return nil
}

// LoadProgram merges a compiled program's symbols into the harness's
// table and loads its bytes at address 0 (the assembler's output is
// implicitly origined there; `org` directives inside the source
// already placed code at the right offsets within Data).
func (h *Harness) LoadProgram(p *CompiledProgram) error {
	for name, v := range p.Symbols {
		h.Symbols[strings.ToUpper(name)] = v
	}
	return h.Load(p.Data, uint16(0))
}

// Compile delegates to the assembler collaborator and loads the
// result. start, if given, is the base address assembly begins at
// (0 if omitted); `org` directives in source override it for later
// regions.
func (h *Harness) Compile(source string, start ...any) error {
	base := uint16(0)
	if len(start) > 0 {
		resolved, err := h.resolve(start[0])
		if err != nil {
			return err
		}
		base = resolved
	}
	prog, err := h.assembler.Assemble(source, base)
	if err != nil {
		return &AssembleError{Err: err}
	}
	return h.LoadProgram(prog)
}

// CompileFile reads path and compiles it.
func (h *Harness) CompileFile(path string, start ...any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &AssembleError{Source: path, Err: err}
	}
	return h.Compile(string(data), start...)
}

// GetMemory returns a copy of length bytes starting at the resolved
// address.
func (h *Harness) GetMemory(start any, length int) ([]byte, error) {
	base, err := h.resolve(start)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = h.Memory[uint16(int(base)+i)]
	}
	return out, nil
}

// SetBreakpoint/ClearBreakpoint delegate to the step-mock chain.
func (h *Harness) SetBreakpoint(addr any) error {
	a, err := h.resolve(addr)
	if err != nil {
		return err
	}
	h.Mocks.SetBreakpoint(a)
	return nil
}

func (h *Harness) ClearBreakpoint(addr any) error {
	a, err := h.resolve(addr)
	if err != nil {
		return err
	}
	h.Mocks.ClearBreakpoint(a)
	return nil
}

// MockCall/MockStep/MockAllSteps delegate to the step-mock chain.
func (h *Harness) MockCall(addr any, fn func(c *CPU)) error {
	a, err := h.resolve(addr)
	if err != nil {
		return err
	}
	h.Mocks.MockCall(a, fn)
	return nil
}

func (h *Harness) MockStep(addr any, fn func(c *CPU) StepVerdict) error {
	a, err := h.resolve(addr)
	if err != nil {
		return err
	}
	h.Mocks.MockStep(a, fn)
	return nil
}

func (h *Harness) MockAllSteps(fn func(c *CPU) StepVerdict) {
	h.Mocks.MockAllSteps(fn)
}

// Run executes the 7-step loop described by the harness contract,
// starting from the resolved entry point (or the CPU's current PC when
// start is nil).
func (h *Harness) Run(start any, opts RunOptions) (RunResult, error) {
	if start != nil {
		entry, err := h.resolve(start)
		if err != nil {
			return RunResult{}, err
		}
		h.CPU.PC = entry
	}

	steps := opts.Steps
	if steps <= 0 {
		steps = DefaultMaxSteps
	}

	entrySP := h.CPU.SP
	count := 0
	tstates := 0

	for {
		if h.CPU.Halted {
			break
		}
		if count >= steps {
			break
		}

		switch h.Mocks.Run(h.CPU) {
		case StepBreak:
			return RunResult{Instructions: count, TStates: tstates, Coverage: opts.Coverage}, nil
		case StepSkip:
			count++
			continue
		}

		if opts.Call && h.CPU.LastInstruction == LastRET && h.CPU.SP == entrySP+2 {
			break
		}

		if opts.Log {
			fmt.Println(h.CPU.FormatBriefRegisters())
		}
		if opts.Coverage != nil {
			opts.Coverage[h.CPU.PC]++
		}

		tstates += h.CPU.Step()
		count++
	}

	return RunResult{Instructions: count, TStates: tstates, Coverage: opts.Coverage}, nil
}

// Call sets SP to the configured default call-SP (or options.SP) before
// running with call-return detection enabled.
func (h *Harness) Call(start any, opts RunOptions) (RunResult, error) {
	sp := h.DefaultCallSP
	if opts.SP != nil {
		resolved, err := h.resolve(opts.SP)
		if err != nil {
			return RunResult{}, err
		}
		sp = resolved
	}
	h.CPU.SP = sp
	opts.Call = true
	return h.Run(start, opts)
}

// ShowRegisters/DumpMemory/FormatBriefRegisters are diagnostic
// formatters delegated to the CPU/debug helpers.
func (h *Harness) ShowRegisters() []RegisterInfo   { return h.CPU.ShowRegisters() }
func (h *Harness) FormatBriefRegisters() string    { return h.CPU.FormatBriefRegisters() }
func (h *Harness) DumpMemory(start uint16, n int) string {
	return DumpMemory(h.Memory[:], start, n)
}

// SaveMemory captures backing memory and the symbol table.
func (h *Harness) SaveMemory() MemorySnapshot {
	snap := MemorySnapshot{Symbols: make(map[string]uint16, len(h.Symbols))}
	snap.Memory = h.Memory
	for k, v := range h.Symbols {
		snap.Symbols[k] = v
	}
	return snap
}

// LoadMemory restores a snapshot captured by SaveMemory.
func (h *Harness) LoadMemory(snap MemorySnapshot) {
	h.Memory = snap.Memory
	h.Symbols = make(map[string]uint16, len(snap.Symbols))
	for k, v := range snap.Symbols {
		h.Symbols[k] = v
	}
}

// ExportSnapshot packs the current register file and the full 64 KiB
// backing memory into a z80asm.Machine and writes it as a ZX-Spectrum
// .sna snapshot at path, for offline inspection of a failing scenario
// in a real emulator. WriteSNA requires the low 16 KiB (the ROM region)
// to read as zero, matching a harness that never loads anything below
// 0x4000.
func (h *Harness) ExportSnapshot(path string) error {
	ram := make([]uint8, len(h.Memory))
	copy(ram, h.Memory[:])

	m, err := z80asm.NewMachine(ram)
	if err != nil {
		return err
	}

	c := h.CPU
	m.AF = c.AF()
	m.BC = c.BC()
	m.DE = c.DE()
	m.HL = c.HL()
	m.IX = c.IX
	m.IY = c.IY
	m.AF2 = c.AF2()
	m.BC2 = c.BC2()
	m.DE2 = c.DE2()
	m.HL2 = c.HL2()
	m.SP = c.SP
	m.PC = c.PC
	m.I = c.I
	m.R = c.R
	m.IntEnabled = c.IFF1
	m.IntMode = c.IM

	return z80io.SaveSNA(path, m)
}
