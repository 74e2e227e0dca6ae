package parser

import (
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
)

// State is the accumulation state of a Machine.
type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// Machine groups classified lines into records. An anchor opens a record,
// continuation lines merge into it and the next anchor or Finish closes it.
type Machine struct {
	kind    dto.DocumentKind
	rules   ruleSet
	ctx     state
	state   State
	current *PartialRecord
	out     []PartialRecord
}

// NewMachine returns an idle machine for kind.
func NewMachine(kind dto.DocumentKind, opts Options) (*Machine, error) {
	rs, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	return &Machine{
		kind:  kind,
		rules: rs,
		ctx:   state{opts: opts, prevBalance: opts.OpeningBalance},
	}, nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Feed classifies one line and advances the machine.
func (m *Machine) Feed(line string) LineToken {
	line = normalizeLine(line)
	tok, rule, match := classify(m.rules.anchors, line, m.state == Accumulating)
	switch tok.Class {
	case EntryStart:
		m.closeCurrent()
		m.current = newPartialRecord(m.kind)
		rule.Handle(&m.ctx, m.current, line, match)
		m.state = Accumulating
	case Continuation:
		m.rules.merge(&m.ctx, m.current, line)
	case Noise:
	}
	return tok
}

// Finish closes any open record and returns the records in emission order.
// The machine is idle and empty afterwards.
func (m *Machine) Finish() []PartialRecord {
	m.closeCurrent()
	out := m.out
	m.out = nil
	if out == nil {
		out = []PartialRecord{}
	}
	return out
}

func (m *Machine) closeCurrent() {
	if m.current != nil {
		m.out = append(m.out, *m.current)
		m.current = nil
	}
	m.state = Idle
}

// Parse runs a single pass over text and returns the partial records for kind.
func Parse(kind dto.DocumentKind, text string, opts Options) ([]PartialRecord, error) {
	m, err := NewMachine(kind, opts)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		m.Feed(line)
	}
	return m.Finish(), nil
}

// ParsePages parses pages as one continuous document.
func ParsePages(kind dto.DocumentKind, pages []RawPage, opts Options) ([]PartialRecord, error) {
	return Parse(kind, JoinPages(pages), opts)
}
