package parser

import (
	"testing"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, FieldRevenue, CanonicalCategory("Sales"))
	assert.Equal(t, FieldRevenue, CanonicalCategory("income"))
	assert.Equal(t, FieldExpenses, CanonicalCategory("COST"))
	assert.Equal(t, FieldNetProfit, CanonicalCategory("loss"))
	assert.Equal(t, "", CanonicalCategory("equity"))
}

func TestParsePnLSections(t *testing.T) {
	text := `
		Revenue
		Product sales 5,000.00
		Expenses
		Rent 1,200.00
		Cost of goods sold 800.00
		Net Profit 3,000.00
	`
	records, err := Parse(dto.KindPnL, text, Options{})
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "Revenue", records[0].Fields[FieldSection])
	assert.Equal(t, FieldRevenue, records[0].Fields[FieldCategory])
	assert.Equal(t, "Product sales", records[0].Fields[FieldDescription])
	assert.Equal(t, "5000", records[0].Fields[FieldRevenue])

	assert.Equal(t, "Expenses", records[1].Fields[FieldSection])
	assert.Equal(t, "1200", records[1].Fields[FieldExpenses])

	assert.Equal(t, "Expenses", records[2].Fields[FieldSection])
	assert.Equal(t, "of goods sold", records[2].Fields[FieldDescription])
	assert.Equal(t, "800", records[2].Fields[FieldExpenses])

	assert.Equal(t, FieldNetProfit, records[3].Fields[FieldCategory])
	assert.Equal(t, "3000", records[3].Fields[FieldNetProfit])
}

func TestParsePnLSectionFallsBackToKeyword(t *testing.T) {
	records, err := Parse(dto.KindPnL, "SALES 15/03/2023 2,500.00", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Sales", rec.Fields[FieldSection])
	assert.Equal(t, "15-03-2023", rec.Fields[FieldDate])
	assert.False(t, rec.Has(FieldDescription))
	// the date digits are not read as the amount
	assert.Equal(t, "2500", rec.Fields[FieldRevenue])
}

func TestParsePnLMonthPeriod(t *testing.T) {
	records, err := Parse(dto.KindPnL, "Income March 2023 $7,450.25", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "01-03-2023", records[0].Fields[FieldDate])
	assert.Equal(t, "7450.25", records[0].Fields[FieldRevenue])
}

func TestParsePnLDescriptionFollowsKeyword(t *testing.T) {
	records, err := Parse(dto.KindPnL, "Revenue Product sales 5000.00\nExpenses Rent 1200.00\nTotal expenses: 300.00", Options{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Product sales", records[0].Fields[FieldDescription])
	assert.Equal(t, "5000", records[0].Fields[FieldRevenue])
	assert.Equal(t, "Rent", records[1].Fields[FieldDescription])
	assert.Equal(t, "1200", records[1].Fields[FieldExpenses])
	assert.False(t, records[2].Has(FieldDescription))
	assert.Equal(t, "300", records[2].Fields[FieldExpenses])
}
