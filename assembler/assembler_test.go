package assembler

import (
	"testing"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/parser"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(kind dto.DocumentKind, fields map[string]string) parser.PartialRecord {
	return parser.PartialRecord{Kind: kind, Fields: fields}
}

func TestAssembleTransactionsEndToEnd(t *testing.T) {
	records, err := parser.Parse(dto.KindTransaction, "01/02/2023 Grocery Store 45.00 CR 955.00", parser.Options{})
	require.NoError(t, err)

	table, err := Assemble(dto.KindTransaction, records)
	require.NoError(t, err)
	require.Len(t, table.Transactions, 1)

	tx := table.Transactions[0]
	assert.Equal(t, "01-02-2023", tx.Date.String())
	assert.Equal(t, "Grocery Store", tx.Description)
	assert.True(t, tx.Debit.IsZero())
	assert.True(t, decimal.RequireFromString("45.00").Equal(tx.Credit))
	assert.True(t, decimal.RequireFromString("955.00").Equal(tx.Balance))

	require.Len(t, table.Projection, 1)
	assert.Equal(t, "Grocery Store", table.Projection[0].Category)
	assert.True(t, decimal.RequireFromString("45").Equal(table.Projection[0].Amount))
}

func TestAssembleInvoiceEndToEnd(t *testing.T) {
	records, err := parser.Parse(dto.KindInvoice, "Item A123 Widget Qty 3 Price 10.00 Total 30.00", parser.Options{})
	require.NoError(t, err)

	table, err := Assemble(dto.KindInvoice, records)
	require.NoError(t, err)
	require.Len(t, table.Items, 1)

	item := table.Items[0]
	assert.Equal(t, "A123", item.ProductID)
	assert.Equal(t, "Widget", item.Description)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(item.UnitPrice))
	assert.True(t, decimal.RequireFromString("30.00").Equal(item.Total))

	// the chart view pairs each item with its unit price
	require.Len(t, table.Projection, 1)
	assert.Equal(t, "Widget", table.Projection[0].Category)
	assert.True(t, decimal.RequireFromString("10").Equal(table.Projection[0].Amount))
}

func TestAssembleTransactionsDropsUndatedAndSorts(t *testing.T) {
	records := []parser.PartialRecord{
		record(dto.KindTransaction, map[string]string{parser.FieldDate: "05-01-2023", parser.FieldDescription: "later", parser.FieldDebit: "5"}),
		record(dto.KindTransaction, map[string]string{parser.FieldRawDate: "31/02/2023", parser.FieldDescription: "bad", parser.FieldDebit: "1"}),
		record(dto.KindTransaction, map[string]string{parser.FieldDate: "02-01-2023", parser.FieldDescription: "first"}),
		record(dto.KindTransaction, map[string]string{parser.FieldDate: "05-01-2023", parser.FieldDescription: "later too", parser.FieldCredit: "7"}),
	}

	table, err := Assemble(dto.KindTransaction, records)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "later", "later too"}, table.Descriptions())
	// missing amounts default to zero
	assert.True(t, table.Transactions[0].Debit.IsZero())
	assert.True(t, table.Transactions[0].Credit.IsZero())
	assert.True(t, table.Transactions[0].Balance.IsZero())
}

func TestAssembleInvoiceDerivedTotal(t *testing.T) {
	cases := []struct {
		qty, price string
	}{
		{"3", "10.00"},
		{"7", "0.10"},
		{"12", "19.99"},
		{"0", "5"},
		{"1000", "0.001"},
	}
	records := make([]parser.PartialRecord, 0, len(cases))
	for _, c := range cases {
		records = append(records, record(dto.KindInvoice, map[string]string{
			parser.FieldProductID: "P",
			parser.FieldQuantity:  c.qty,
			parser.FieldUnitPrice: c.price,
		}))
	}

	table, err := Assemble(dto.KindInvoice, records)
	require.NoError(t, err)
	require.Len(t, table.Items, len(cases))

	for _, item := range table.Items {
		want := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		assert.True(t, want.Equal(item.Total), "%s x %d", item.UnitPrice, item.Quantity)
	}
	assert.True(t, decimal.RequireFromString("239.88").Equal(table.Items[2].Total))
}

func TestAssembleInvoiceExplicitTotalWins(t *testing.T) {
	records := []parser.PartialRecord{
		record(dto.KindInvoice, map[string]string{parser.FieldQuantity: "3", parser.FieldUnitPrice: "10", parser.FieldTotal: "27"}),
		record(dto.KindInvoice, map[string]string{parser.FieldProductID: "B", parser.FieldQuantity: "x"}),
	}

	table, err := Assemble(dto.KindInvoice, records)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(27).Equal(table.Items[0].Total))
	assert.Equal(t, 0, table.Items[1].Quantity)
	assert.True(t, table.Items[1].Total.IsZero())
	assert.Equal(t, "", table.Items[1].Description)
}

func TestAssemblePnLDerivesNetProfitAndSorts(t *testing.T) {
	records := []parser.PartialRecord{
		record(dto.KindPnL, map[string]string{parser.FieldCategory: "expenses", parser.FieldExpenses: "400"}),
		record(dto.KindPnL, map[string]string{parser.FieldCategory: "revenue", parser.FieldRevenue: "1000", parser.FieldDate: "01-03-2023"}),
		record(dto.KindPnL, map[string]string{parser.FieldCategory: "net_profit", parser.FieldNetProfit: "600"}),
		record(dto.KindPnL, map[string]string{parser.FieldCategory: "revenue", parser.FieldRevenue: "900", parser.FieldDate: "01-02-2023"}),
	}

	table, err := Assemble(dto.KindPnL, records)
	require.NoError(t, err)
	require.Len(t, table.Entries, 4)

	assert.Equal(t, "01-02-2023", table.Entries[0].Date.String())
	assert.Equal(t, "01-03-2023", table.Entries[1].Date.String())
	assert.Equal(t, "expenses", table.Entries[2].Category)
	assert.Equal(t, "net_profit", table.Entries[3].Category)

	assert.True(t, decimal.NewFromInt(900).Equal(table.Entries[0].NetProfit))
	assert.True(t, decimal.NewFromInt(-400).Equal(table.Entries[2].NetProfit))
	assert.True(t, decimal.NewFromInt(600).Equal(table.Entries[3].NetProfit))

	require.Len(t, table.Projection, 4)
	assert.Equal(t, "revenue", table.Projection[0].Category)
}

func TestAssembleIsIdempotent(t *testing.T) {
	text := "03/01/2023 Rent 200.00 800.00\n01/01/2023 Salary 1,000.00 1,000.00\n02/01/2023 Coffee 4.50 995.50"
	records, err := parser.Parse(dto.KindTransaction, text, parser.Options{})
	require.NoError(t, err)
	before := make([]parser.PartialRecord, len(records))
	for i, r := range records {
		before[i] = r.Clone()
	}

	first, err := Assemble(dto.KindTransaction, records)
	require.NoError(t, err)
	second, err := Assemble(dto.KindTransaction, records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, records)
}

func TestAssembleEmpty(t *testing.T) {
	for _, kind := range dto.AllKinds {
		table, err := Assemble(kind, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
		assert.NotNil(t, table.Projection)
		assert.Empty(t, table.Projection)
	}
}

func TestAssembleUnknownKind(t *testing.T) {
	_, err := Assemble(dto.DocumentKind(0), nil)
	assert.Error(t, err)
}
