// assembler.go - the assembler collaborator boundary. Assembler is the
// interface the Harness's compile/compile_file operations depend on;
// paulhankinAssembler is the shipped default, wrapping the real
// github.com/paulhankin/z80asm package. Tests may substitute a fake
// Assembler to exercise the Harness without a real assembler on the
// classpath.

package z80

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulhankin/z80asm"
)

// CompiledProgram is the (bytes, symbols) pair an Assembler produces:
// data is implicitly origined at 0 (the assembler pads for any `org`
// directives used in the source), and symbols maps uppercased
// identifiers to their absolute address.
type CompiledProgram struct {
	Data    []byte
	Symbols map[string]uint16
}

// Assembler turns Z80 source into a CompiledProgram. Source is assumed
// to start assembling at address start (0 if the caller passed no
// preference); `org` directives inside the source override this for
// later regions, exactly as on real hardware.
type Assembler interface {
	Assemble(source string, start uint16) (*CompiledProgram, error)
}

var labelPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*:`)

// paulhankinAssembler wraps github.com/paulhankin/z80asm. AssembleFile
// is the package's only entry point that drives a full two-pass
// assembly, and it only accepts a filename, so Assemble stages the
// source (prefixed with a synthetic `org <start>` line) to a temp file.
type paulhankinAssembler struct{}

// NewDefaultAssembler returns the z80asm-backed Assembler this module
// ships as its default collaborator.
func NewDefaultAssembler() Assembler { return paulhankinAssembler{} }

func (paulhankinAssembler) Assemble(source string, start uint16) (*CompiledProgram, error) {
	tmp, err := os.CreateTemp("", "z80asm-*.z80")
	if err != nil {
		return nil, &AssembleError{Err: err}
	}
	defer os.Remove(tmp.Name())

	staged := strings.Builder{}
	staged.WriteString("org ")
	staged.WriteString(strconv.Itoa(int(start)))
	staged.WriteByte('\n')
	staged.WriteString(source)

	if _, err := tmp.WriteString(staged.String()); err != nil {
		tmp.Close()
		return nil, &AssembleError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &AssembleError{Err: err}
	}

	asm, err := z80asm.NewAssembler()
	if err != nil {
		return nil, &AssembleError{Err: err}
	}
	if err := asm.AssembleFile(tmp.Name()); err != nil {
		return nil, &AssembleError{Source: source, Err: err}
	}

	symbols := make(map[string]uint16)
	for _, name := range collectLabelNames(source) {
		if v, ok := asm.GetLabel("", name); ok {
			symbols[strings.ToUpper(name)] = v
		}
	}

	ram := asm.RAM()
	data := make([]byte, len(ram))
	copy(data, ram)

	return &CompiledProgram{Data: data, Symbols: symbols}, nil
}

// collectLabelNames scans source text for `name:` label definitions so
// their resolved addresses can be pulled out of the assembler (which
// exposes lookup-by-name but not enumeration).
func collectLabelNames(source string) []string {
	matches := labelPattern.FindAllStringSubmatch(source, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
