package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// amountPattern matches an optional currency symbol followed by a decimal number
// with optional thousands separators. The word boundary keeps digits that belong
// to identifiers such as "A123" out.
const amountPattern = `(?:[$£€₹]\s?)?\b(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`

var amountRe = regexp.MustCompile(amountPattern)

var currencyReplacer = strings.NewReplacer("$", "", "£", "", "€", "", "₹", "", ",", "", " ", "")

// Token is an amount-shaped substring located on a line.
type Token struct {
	Text  string
	Start int
	End   int
	Value decimal.Decimal
}

// FindAmounts returns the amount tokens in s from left to right. Offsets are
// relative to s.
func FindAmounts(s string) []Token {
	locs := amountRe.FindAllStringIndex(s, -1)
	tokens := make([]Token, 0, len(locs))
	for _, loc := range locs {
		text := s[loc[0]:loc[1]]
		v, err := ParseAmount(text)
		if err != nil {
			continue
		}
		tokens = append(tokens, Token{Text: text, Start: loc[0], End: loc[1], Value: v})
	}
	return tokens
}

// ParseAmount parses a locale-formatted amount such as "$1,234.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := currencyReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Abs(), nil
}

// CleanDescription drops every rune that is not a letter, digit or space and
// collapses runs of whitespace.
func CleanDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func amountString(d decimal.Decimal) string {
	return d.String()
}
