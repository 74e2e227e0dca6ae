package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var pnlAnchorRe = regexp.MustCompile(`(?i)^\s*(?:(?:total|net|gross|operating|other)\s+)?(revenue|income|sales|expense|cost|profit|loss)[a-z]*`)

var pnlRules = []Rule{
	{Name: "category_keyword", Pattern: pnlAnchorRe, Handle: handlePnL},
}

// CanonicalCategory maps a statement keyword to the field it feeds:
// revenue, expenses or net_profit. It returns "" for unknown keywords.
func CanonicalCategory(keyword string) string {
	switch strings.ToLower(keyword) {
	case "revenue", "income", "sales":
		return FieldRevenue
	case "expense", "cost":
		return FieldExpenses
	case "profit", "loss":
		return FieldNetProfit
	default:
		return ""
	}
}

func handlePnL(s *state, rec *PartialRecord, line string, m []int) {
	keyword := line[m[2]:m[3]]
	category := CanonicalCategory(keyword)
	rec.Set(FieldCategory, category)

	rest, date := cutDate(line[m[1]:])
	rec.Set(FieldDate, date)

	tokens := FindAmounts(rest)
	if len(tokens) == 0 {
		// A keyword line without an amount heads the section that follows.
		s.section = CleanDescription(line)
		rec.Set(FieldSection, s.section)
		return
	}
	section := s.section
	if section == "" {
		section = titleCase(keyword)
	}
	rec.Set(FieldSection, section)
	rec.Set(FieldDescription, CleanDescription(rest[:tokens[0].Start]))
	rec.Set(category, amountString(tokens[0].Value))
}

func continuePnL(s *state, rec *PartialRecord, line string) bool {
	rest, date := cutDate(line)
	filled := rec.Set(FieldDate, date)

	tokens := FindAmounts(rest)
	desc := rest
	if len(tokens) > 0 {
		desc = rest[:tokens[0].Start]
	}
	filled = rec.Set(FieldDescription, CleanDescription(desc)) || filled

	category, _ := rec.Get(FieldCategory)
	if len(tokens) > 0 && category != "" {
		filled = rec.Set(category, amountString(tokens[0].Value)) || filled
	}
	return filled
}

// cutDate blanks out the first date in s so its digits are not read as
// amounts, and returns the normalized date if it parses.
func cutDate(s string) (string, string) {
	loc := findDate(s)
	if loc == nil {
		return s, ""
	}
	date, _ := NormalizeDate(s[loc[0]:loc[1]])
	return s[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + s[loc[1]:], date
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
