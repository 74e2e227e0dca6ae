package parser

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	debitKeywordRe  = regexp.MustCompile(`\bD[Rr]\b|(?i:\bdebit\b)`)
	creditKeywordRe = regexp.MustCompile(`\bC[Rr]\b|(?i:\bcredit\b)`)
)

var transactionRules = []Rule{
	{Name: "iso_date", Pattern: isoDateRe, Handle: handleTransaction},
	{Name: "day_month_name", Pattern: dayMonthNameRe, Handle: handleTransaction},
	{Name: "month_name_day", Pattern: monthNameDayRe, Handle: handleTransaction},
	{Name: "numeric_date", Pattern: numericDateRe, Handle: handleTransaction},
}

// AmountRoles is the outcome of debit/credit/balance disambiguation.
type AmountRoles struct {
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.NullDecimal
}

// Keyword is an explicit debit or credit marker found on a line.
type Keyword int

const (
	NoKeyword Keyword = iota
	DebitKeyword
	CreditKeyword
)

// DetectKeyword looks for DR/debit first and CR/credit second.
func DetectKeyword(line string) Keyword {
	switch {
	case debitKeywordRe.MatchString(line):
		return DebitKeyword
	case creditKeywordRe.MatchString(line):
		return CreditKeyword
	default:
		return NoKeyword
	}
}

// ResolveAmounts assigns debit, credit and balance roles to the amounts of a
// transaction line.
//
// With a keyword the first amount takes the keyword's role, the other role is
// zero and, given two or more amounts, the last one is the balance. Without a
// keyword, three or more amounts make the last one the balance and the one
// before it the transaction amount; two amounts make the second the balance
// when a previous balance is known, otherwise they are read as debit and
// credit by position. In both cases the amount is a debit when the balance
// fell below the previous balance and a credit otherwise. A single amount with
// no keyword is a debit.
//
// A debit that overdraws the account is reported as a credit; the comparison
// has no way to tell the two apart. Keywords are matched as whole words
// anywhere on the line, so a description such as "Dr Smith clinic" reads as
// a debit marker and wins over the balance comparison. Both misreadings are
// accepted.
func ResolveAmounts(amounts []decimal.Decimal, line string, prev decimal.NullDecimal) (AmountRoles, bool) {
	var roles AmountRoles
	n := len(amounts)
	if n == 0 {
		return roles, false
	}

	if kw := DetectKeyword(line); kw != NoKeyword {
		if kw == DebitKeyword {
			roles.Debit = amounts[0]
		} else {
			roles.Credit = amounts[0]
		}
		if n >= 2 {
			roles.Balance = decimal.NewNullDecimal(amounts[n-1])
		}
		return roles, true
	}

	switch {
	case n == 1:
		roles.Debit = amounts[0]
	case n == 2 && !prev.Valid:
		if amounts[0].IsPositive() {
			roles.Debit = amounts[0]
		}
		if amounts[1].IsPositive() {
			roles.Credit = amounts[1]
		}
	default:
		balance := amounts[n-1]
		amount := amounts[n-2]
		roles.Balance = decimal.NewNullDecimal(balance)
		if prev.Valid && balance.GreaterThanOrEqual(prev.Decimal) {
			roles.Credit = amount
		} else {
			roles.Debit = amount
		}
	}
	return roles, true
}

func handleTransaction(s *state, rec *PartialRecord, line string, m []int) {
	raw := line[m[0]:m[1]]
	if d, ok := NormalizeDate(raw); ok {
		rec.Set(FieldDate, d)
	} else {
		rec.Set(FieldRawDate, raw)
	}
	fillTransaction(s, rec, line[m[1]:])
}

func continueTransaction(s *state, rec *PartialRecord, line string) bool {
	return fillTransaction(s, rec, line)
}

// fillTransaction reads the description and amounts from rest. Amounts are
// only taken while the record has none yet.
func fillTransaction(s *state, rec *PartialRecord, rest string) bool {
	tokens := FindAmounts(rest)
	desc := rest
	if len(tokens) > 0 {
		desc = rest[:tokens[0].Start]
	}
	filled := rec.Set(FieldDescription, CleanDescription(desc))

	if len(tokens) == 0 || rec.Has(FieldDebit) || rec.Has(FieldCredit) || rec.Has(FieldBalance) {
		return filled
	}
	values := make([]decimal.Decimal, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	roles, ok := ResolveAmounts(values, rest, s.prevBalance)
	if !ok {
		return filled
	}
	rec.Set(FieldDebit, amountString(roles.Debit))
	rec.Set(FieldCredit, amountString(roles.Credit))
	if roles.Balance.Valid {
		rec.Set(FieldBalance, amountString(roles.Balance.Decimal))
		s.prevBalance = roles.Balance
	}
	return true
}
