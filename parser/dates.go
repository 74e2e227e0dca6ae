package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/finextract/ocr-financial-extraction/dto"
)

// Day and month fields of numeric dates; a run of plain amounts such as
// "12 50 1000" does not fit either order.
const (
	dayNum   = `(?:0?[1-9]|[12]\d|3[01])`
	monthNum = `(?:0?[1-9]|1[0-2])`
)

const monthName = `(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

var (
	isoDateRe       = regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`)
	dayMonthNameRe  = regexp.MustCompile(`\b\d{1,2}\s+` + monthName + `\s+\d{4}\b`)
	monthNameDayRe  = regexp.MustCompile(`\b` + monthName + `\s+\d{1,2},\s*\d{4}\b`)
	numericDateRe   = regexp.MustCompile(`\b(?:` + dayNum + `[-/ ]` + monthNum + `|` + monthNum + `[-/ ]` + dayNum + `)[-/ ](?:19|20)\d{2}\b`)
	monthNameYearRe = regexp.MustCompile(`\b` + monthName + `\s+\d{4}\b`)

	commaSpaceRe = regexp.MustCompile(`\s*,\s*`)
	septRe       = regexp.MustCompile(`(?i)\bsept\b`)
)

// dateLayouts are tried in order; the first layout that parses wins. The first
// eight are D/M/Y, D-M-Y, D M Y, M/D/Y, Y/M/D, D Mon Y, Mon D, Y and Y-M-D.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2 1 2006",
	"1/2/2006",
	"2006/1/2",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-1-2",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2006",
	"January 2006",
}

// ParseDate tries every supported layout in priority order.
func ParseDate(s string) (time.Time, bool) {
	s = canonicalDateText(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders s as DD-MM-YYYY. ok is false when no layout matches.
func NormalizeDate(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(dto.DateLayout), true
}

func canonicalDateText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.IndexFunc(s, isASCIILetter) >= 0 {
		s = strings.ReplaceAll(s, ".", "")
		s = septRe.ReplaceAllString(s, "Sep")
	}
	return commaSpaceRe.ReplaceAllString(s, ", ")
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// findDate returns the location of the first date in s using the same
// priority as the transaction anchor rules, followed by month-year periods.
func findDate(s string) []int {
	for _, re := range []*regexp.Regexp{isoDateRe, dayMonthNameRe, monthNameDayRe, numericDateRe, monthNameYearRe} {
		if loc := re.FindStringIndex(s); loc != nil {
			return loc
		}
	}
	return nil
}
