// bus.go - the abstract byte-oriented memory and I/O port access the
// interpreter consumes. The Bus itself never fails; it is total over
// every address and every port.

package z80

// Bus is the CPU's only window onto the outside world. Harness supplies
// the concrete implementation (backing 64 KiB memory plus optional
// hooks); tests rarely need to implement it directly.
type Bus interface {
	MemRead(addr uint16) byte
	MemWrite(addr uint16, value byte)
	IORead(port uint16) byte
	IOWrite(port uint16, value byte)
}

// MemReadHook may shadow a memory read. ok=false means "not handled";
// the Harness then falls through to its backing memory.
type MemReadHook func(addr uint16) (value byte, ok bool)

// MemWriteHook may shadow a memory write. Returning true suppresses the
// write to backing memory.
type MemWriteHook func(addr uint16, value byte) (suppress bool)

// IOReadHook and IOWriteHook are required if a test's program executes
// IN/OUT; an unset hook reads as 0 and discards writes.
type IOReadHook func(port uint16) byte
type IOWriteHook func(port uint16, value byte)
