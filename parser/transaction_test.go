package parser

import (
	"testing"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = dec(v)
	}
	return out
}

func TestResolveAmountsDebitKeywordSingleToken(t *testing.T) {
	roles, ok := ResolveAmounts(decs("100.00"), "ATM withdrawal DR 100.00", decimal.NullDecimal{})

	require.True(t, ok)
	assert.True(t, dec("100").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())
	assert.False(t, roles.Balance.Valid)
}

func TestResolveAmountsCreditKeywordWithBalance(t *testing.T) {
	roles, ok := ResolveAmounts(decs("45.00", "955.00"), "Grocery Store 45.00 CR 955.00", decimal.NullDecimal{})

	require.True(t, ok)
	assert.True(t, roles.Debit.IsZero())
	assert.True(t, dec("45").Equal(roles.Credit))
	require.True(t, roles.Balance.Valid)
	assert.True(t, dec("955").Equal(roles.Balance.Decimal))
}

func TestResolveAmountsKeywordWordsAreCaseInsensitive(t *testing.T) {
	roles, _ := ResolveAmounts(decs("10"), "card Debit 10", decimal.NullDecimal{})
	assert.True(t, dec("10").Equal(roles.Debit))

	roles, _ = ResolveAmounts(decs("10"), "interest CREDIT 10", decimal.NullDecimal{})
	assert.True(t, dec("10").Equal(roles.Credit))
	assert.True(t, roles.Debit.IsZero())
}

func TestResolveAmountsDebitKeywordWinsOverCredit(t *testing.T) {
	roles, _ := ResolveAmounts(decs("20"), "credit card DR 20", decimal.NullDecimal{})
	assert.True(t, dec("20").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())
}

// A title in the description is indistinguishable from the DR marker.
func TestResolveAmountsDrTitleReadsAsDebit(t *testing.T) {
	prev := decimal.NewNullDecimal(dec("1000"))
	roles, ok := ResolveAmounts(decs("80.00", "1080.00"), "Refund Dr Smith clinic 80.00 1080.00", prev)

	require.True(t, ok)
	assert.True(t, dec("80").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())
	assert.True(t, dec("1080").Equal(roles.Balance.Decimal))
}

func TestResolveAmountsThreeTokensLastIsBalance(t *testing.T) {
	roles, ok := ResolveAmounts(decs("50.00", "20.00", "1000.00"), "Transfer 50.00 20.00 1000.00", decimal.NullDecimal{})

	require.True(t, ok)
	require.True(t, roles.Balance.Valid)
	assert.True(t, dec("1000").Equal(roles.Balance.Decimal))
	// no previous balance: the amount is read as a debit
	assert.True(t, dec("20").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())
}

func TestResolveAmountsThreeTokensComparesPreviousBalance(t *testing.T) {
	prev := decimal.NewNullDecimal(dec("900"))

	roles, _ := ResolveAmounts(decs("50.00", "20.00", "1000.00"), "Transfer", prev)
	assert.True(t, dec("20").Equal(roles.Credit))
	assert.True(t, roles.Debit.IsZero())

	roles, _ = ResolveAmounts(decs("50.00", "20.00", "880.00"), "Transfer", prev)
	assert.True(t, dec("20").Equal(roles.Debit))
	assert.True(t, dec("880").Equal(roles.Balance.Decimal))
}

func TestResolveAmountsTwoTokensWithPreviousBalance(t *testing.T) {
	prev := decimal.NewNullDecimal(dec("1000"))

	roles, _ := ResolveAmounts(decs("200.00", "800.00"), "Rent", prev)
	assert.True(t, dec("200").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())
	assert.True(t, dec("800").Equal(roles.Balance.Decimal))

	roles, _ = ResolveAmounts(decs("500.00", "1500.00"), "Salary", prev)
	assert.True(t, dec("500").Equal(roles.Credit))
	assert.True(t, roles.Debit.IsZero())
}

func TestResolveAmountsTwoTokensWithoutPreviousBalance(t *testing.T) {
	roles, _ := ResolveAmounts(decs("200.00", "800.00"), "Rent", decimal.NullDecimal{})

	assert.True(t, dec("200").Equal(roles.Debit))
	assert.True(t, dec("800").Equal(roles.Credit))
	assert.False(t, roles.Balance.Valid)

	roles, _ = ResolveAmounts(decs("0", "75"), "Refund", decimal.NullDecimal{})
	assert.True(t, roles.Debit.IsZero())
	assert.True(t, dec("75").Equal(roles.Credit))
}

func TestResolveAmountsSingleTokenNoKeyword(t *testing.T) {
	roles, ok := ResolveAmounts(decs("12.34"), "Coffee", decimal.NullDecimal{})
	require.True(t, ok)
	assert.True(t, dec("12.34").Equal(roles.Debit))
	assert.True(t, roles.Credit.IsZero())

	_, ok = ResolveAmounts(nil, "Coffee", decimal.NullDecimal{})
	assert.False(t, ok)
}

func TestParseTransactionEndToEndLine(t *testing.T) {
	records, err := Parse(dto.KindTransaction, "01/02/2023 Grocery Store 45.00 CR 955.00", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, dto.KindTransaction, rec.Kind)
	assert.Equal(t, "01-02-2023", rec.Fields[FieldDate])
	assert.Equal(t, "Grocery Store", rec.Fields[FieldDescription])
	assert.Equal(t, "0", rec.Fields[FieldDebit])
	assert.Equal(t, "45", rec.Fields[FieldCredit])
	assert.Equal(t, "955", rec.Fields[FieldBalance])
}

func TestParseTransactionUsesRunningBalance(t *testing.T) {
	text := `
		Statement of Account
		Date        Description        Amount     Balance
		02/01/2023  Rent               200.00     800.00
		03/01/2023  Salary           1,500.00   2,300.00
		04/01/2023  Coffee Shop          4.50   2,295.50
	`
	records, err := Parse(dto.KindTransaction, text, Options{OpeningBalance: decimal.NewNullDecimal(dec("1000"))})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "200", records[0].Fields[FieldDebit])
	assert.Equal(t, "0", records[0].Fields[FieldCredit])

	assert.Equal(t, "Salary", records[1].Fields[FieldDescription])
	assert.Equal(t, "1500", records[1].Fields[FieldCredit])
	assert.Equal(t, "2300", records[1].Fields[FieldBalance])

	assert.Equal(t, "Coffee Shop", records[2].Fields[FieldDescription])
	assert.Equal(t, "4.5", records[2].Fields[FieldDebit])
}

func TestParseTransactionDateFormats(t *testing.T) {
	lines := []string{
		"15/03/2023 Coffee 4.50",
		"15-03-2023 Coffee 4.50",
		"15 03 2023 Coffee 4.50",
		"03/15/2023 Coffee 4.50",
		"2023/03/15 Coffee 4.50",
		"15 Mar 2023 Coffee 4.50",
		"Mar 15, 2023 Coffee 4.50",
		"2023-03-15 Coffee 4.50",
	}
	for _, line := range lines {
		records, err := Parse(dto.KindTransaction, line, Options{})
		require.NoError(t, err)
		require.Len(t, records, 1, line)
		assert.Equal(t, "15-03-2023", records[0].Fields[FieldDate], line)
		assert.Equal(t, "Coffee", records[0].Fields[FieldDescription], line)
		assert.Equal(t, "4.5", records[0].Fields[FieldDebit], line)
	}
}

func TestParseTransactionUnparseableDateKeepsRecord(t *testing.T) {
	records, err := Parse(dto.KindTransaction, "31/02/2023 Bad date 10.00", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.False(t, records[0].Has(FieldDate))
	assert.Equal(t, "31/02/2023", records[0].Fields[FieldRawDate])
	assert.Equal(t, "10", records[0].Fields[FieldDebit])
}

func TestParseTransactionContinuationMerges(t *testing.T) {
	text := "05/01/2023 Payment to\nACME Corp 250.00 DR 750.00\n06/01/2023 Interest 1.25 CR 751.25"
	records, err := Parse(dto.KindTransaction, text, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// first value wins for the description
	assert.Equal(t, "Payment to", records[0].Fields[FieldDescription])
	assert.Equal(t, "250", records[0].Fields[FieldDebit])
	assert.Equal(t, "750", records[0].Fields[FieldBalance])

	assert.Equal(t, "1.25", records[1].Fields[FieldCredit])
}

func TestParseTransactionContinuationDoesNotOverwriteAmounts(t *testing.T) {
	text := "05/01/2023 Coffee 3.00\nPage 1 of 2"
	records, err := Parse(dto.KindTransaction, text, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "3", records[0].Fields[FieldDebit])
	assert.Equal(t, "Coffee", records[0].Fields[FieldDescription])
}

func TestParseTransactionAmountRunIsNotADate(t *testing.T) {
	text := "01/02/2023 Grocery Store 45.00 CR 955.00\nFee 12 50 1000.00\n02/02/2023 Fuel 30.00 DR 925.00"
	records, err := Parse(dto.KindTransaction, text, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "01-02-2023", records[0].Fields[FieldDate])
	assert.Equal(t, "Grocery Store", records[0].Fields[FieldDescription])
	assert.Equal(t, "45", records[0].Fields[FieldCredit])
	assert.False(t, records[0].Has(FieldRawDate))
	assert.Equal(t, "02-02-2023", records[1].Fields[FieldDate])

	tok, err := Classify(dto.KindTransaction, "Fee 12 50 1000.00", true)
	require.NoError(t, err)
	assert.Equal(t, Continuation, tok.Class)
}
