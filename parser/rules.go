package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/shopspring/decimal"
)

// Options carries document-level context for the parser.
type Options struct {
	// OpeningBalance seeds the balance comparison used to tell debits from
	// credits when a line carries no explicit keyword.
	OpeningBalance decimal.NullDecimal
}

// state is the mutable document context shared by the handlers of one parse.
type state struct {
	opts        Options
	prevBalance decimal.NullDecimal
	section     string
}

// Rule is one anchor pattern. Handle receives the line and the submatch
// indices of Pattern on it and fills the freshly opened record.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Accept optionally rejects a match, e.g. a table header that looks like an anchor.
	Accept func(line string, m []int) bool
	Handle func(s *state, rec *PartialRecord, line string, m []int)
}

// match returns the submatch indices of r on line, or nil.
func (r Rule) match(line string) []int {
	m := r.Pattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil
	}
	if r.Accept != nil && !r.Accept(line, m) {
		return nil
	}
	return m
}

// continueFunc merges a continuation line into the open record and reports
// whether any field was filled.
type continueFunc func(s *state, rec *PartialRecord, line string) bool

type ruleSet struct {
	anchors []Rule
	merge   continueFunc
}

func rulesFor(kind dto.DocumentKind) (ruleSet, error) {
	switch kind {
	case dto.KindTransaction:
		return ruleSet{anchors: transactionRules, merge: continueTransaction}, nil
	case dto.KindInvoice:
		return ruleSet{anchors: invoiceRules, merge: continueInvoice}, nil
	case dto.KindPnL:
		return ruleSet{anchors: pnlRules, merge: continuePnL}, nil
	default:
		return ruleSet{}, fmt.Errorf("no parsing rules for document kind %s", kind)
	}
}

// Rules returns the anchor rules for kind in priority order.
func Rules(kind dto.DocumentKind) ([]Rule, error) {
	rs, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	return rs.anchors, nil
}

// LineClass is the classification of one line.
type LineClass int

const (
	Noise LineClass = iota
	EntryStart
	Continuation
)

func (c LineClass) String() string {
	switch c {
	case EntryStart:
		return "entry_start"
	case Continuation:
		return "continuation"
	case Noise:
		return "noise"
	default:
		return fmt.Sprintf("LineClass(%d)", int(c))
	}
}

// LineToken is a classified line. Rule and Anchor are set for EntryStart.
type LineToken struct {
	Class  LineClass
	Rule   string
	Anchor string
	Line   string
}

// classify evaluates rules in order; the first match is the anchor. A line
// without an anchor is a continuation only while a record is open.
func classify(rules []Rule, line string, open bool) (LineToken, *Rule, []int) {
	for i := range rules {
		if m := rules[i].match(line); m != nil {
			return LineToken{Class: EntryStart, Rule: rules[i].Name, Anchor: line[m[0]:m[1]], Line: line}, &rules[i], m
		}
	}
	if open && hasContent(line) {
		return LineToken{Class: Continuation, Line: line}, nil, nil
	}
	return LineToken{Class: Noise, Line: line}, nil, nil
}

// Classify reports how line would be classified for kind, given whether a
// record is currently open.
func Classify(kind dto.DocumentKind, line string, open bool) (LineToken, error) {
	rs, err := rulesFor(kind)
	if err != nil {
		return LineToken{}, err
	}
	tok, _, _ := classify(rs.anchors, normalizeLine(line), open)
	return tok, nil
}

func normalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
