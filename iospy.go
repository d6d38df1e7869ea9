// iospy.go - the I/O Spy: a scripted recorder-expectation object that
// validates the exact sequence and direction of port traffic a Z80
// program issues, phase by phase.

package z80

// IOExpectation is one scripted transaction: a port and the single
// expected value. Sequence expectations (a byte slice or string) are
// expanded into one IOExpectation per byte by ExpectReads/ExpectWrites
// and their string forms.
type IOExpectation struct {
	Port  uint16
	Value byte
}

// ioPhase is either a read-expectation sequence or a write-expectation
// sequence, consumed one transaction at a time in order.
type ioPhase struct {
	isWrite      bool
	expect       []IOExpectation
	pos          int
	ignoreReads  bool
	ignoreWrites bool
}

func (p *ioPhase) done() bool { return p.pos >= len(p.expect) }

// IOSpy scripts expected I/O port traffic across an ordered list of
// phases and fails the owning test the moment actual traffic diverges
// from the script.
type IOSpy struct {
	phases  []*ioPhase
	current int
	fail    func(err error)
}

// NewIOSpy returns an empty spy. fail is invoked (with an
// *IOExpectationError) whenever actual traffic violates the script;
// pass t.Fatal-style callback, or nil to panic instead.
func NewIOSpy(fail func(err error)) *IOSpy {
	return &IOSpy{fail: fail}
}

// ExpectReads appends a read-expectation phase for port expecting the
// given bytes in order.
func (s *IOSpy) ExpectReads(port uint16, values ...byte) *IOSpy {
	s.phases = append(s.phases, &ioPhase{isWrite: false, expect: expandExpectations(port, values)})
	return s
}

// ExpectWrites appends a write-expectation phase.
func (s *IOSpy) ExpectWrites(port uint16, values ...byte) *IOSpy {
	s.phases = append(s.phases, &ioPhase{isWrite: true, expect: expandExpectations(port, values)})
	return s
}

// ExpectReadString is a convenience over ExpectReads, treating s's
// bytes as the expected value sequence.
func (s *IOSpy) ExpectReadString(port uint16, str string) *IOSpy {
	return s.ExpectReads(port, []byte(str)...)
}

// ExpectWriteString is a convenience over ExpectWrites.
func (s *IOSpy) ExpectWriteString(port uint16, str string) *IOSpy {
	return s.ExpectWrites(port, []byte(str)...)
}

// IgnoreReads/IgnoreWrites mark the most recently appended phase as
// tolerant of interleaved traffic in the opposite direction.
func (s *IOSpy) IgnoreReads() *IOSpy {
	if len(s.phases) > 0 {
		s.phases[len(s.phases)-1].ignoreReads = true
	}
	return s
}

func (s *IOSpy) IgnoreWrites() *IOSpy {
	if len(s.phases) > 0 {
		s.phases[len(s.phases)-1].ignoreWrites = true
	}
	return s
}

func expandExpectations(port uint16, values []byte) []IOExpectation {
	out := make([]IOExpectation, len(values))
	for i, v := range values {
		out[i] = IOExpectation{Port: port, Value: v}
	}
	return out
}

// Complete reports whether every scripted phase has been fully
// consumed.
func (s *IOSpy) Complete() bool {
	for _, p := range s.phases {
		if !p.done() {
			return false
		}
	}
	return true
}

func (s *IOSpy) activePhase() *ioPhase {
	for s.current < len(s.phases) {
		p := s.phases[s.current]
		if !p.done() {
			return p
		}
		s.current++
	}
	return nil
}

func (s *IOSpy) fatal(reason string, port uint16, want, got byte) {
	err := &IOExpectationError{Reason: reason, Port: port, Want: want, Got: got}
	if s.fail != nil {
		s.fail(err)
		return
	}
	panic(err)
}

// OnRead satisfies IOReadHook: it should be wired as
// harness.OnIORead = spy.OnRead.
func (s *IOSpy) OnRead(port uint16) byte {
	p := s.activePhase()
	if p == nil || p.isWrite {
		if p != nil && p.ignoreReads {
			return 0
		}
		s.fatal("not expecting an IO read", port, 0, 0)
		return 0
	}
	exp := p.expect[p.pos]
	if exp.Port&0xFF != port&0xFF {
		s.fatal("unexpected port on read", port, byte(exp.Port), byte(port))
		return 0
	}
	p.pos++
	return exp.Value
}

// OnWrite satisfies IOWriteHook: wired as harness.OnIOWrite = spy.OnWrite.
func (s *IOSpy) OnWrite(port uint16, value byte) {
	p := s.activePhase()
	if p == nil || !p.isWrite {
		if p != nil && p.ignoreWrites {
			return
		}
		s.fatal("not expecting an IO write", port, 0, value)
		return
	}
	exp := p.expect[p.pos]
	if exp.Port&0xFF != port&0xFF {
		s.fatal("unexpected port on write", port, byte(exp.Port), byte(port))
		return
	}
	if exp.Value != value {
		s.fatal("value mismatch on write", port, exp.Value, value)
		return
	}
	p.pos++
}
