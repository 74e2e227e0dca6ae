package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAmounts(t *testing.T) {
	tokens := FindAmounts("Widget A123 x 3 @ $1,250.50 = €3,751.50 ₹ 99")
	require.Len(t, tokens, 4)

	assert.Equal(t, "3", tokens[0].Text)
	assert.Equal(t, "$1,250.50", tokens[1].Text)
	assert.True(t, dec("1250.5").Equal(tokens[1].Value))
	assert.Equal(t, "€3,751.50", tokens[2].Text)
	assert.Equal(t, "₹ 99", tokens[3].Text)
}

func TestFindAmountsOffsets(t *testing.T) {
	line := "Rent 200.00 800.00"
	tokens := FindAmounts(line)
	require.Len(t, tokens, 2)
	assert.Equal(t, "200.00", line[tokens[0].Start:tokens[0].End])
	assert.Equal(t, "Rent ", line[:tokens[0].Start])
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("£12,000")
	require.NoError(t, err)
	assert.True(t, dec("12000").Equal(v))

	_, err = ParseAmount("$")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Grocery Store", CleanDescription("  Grocery   Store - "))
	assert.Equal(t, "ACME Corp Ltd", CleanDescription("ACME Corp. (Ltd.)"))
	assert.Equal(t, "Café 24", CleanDescription("Café #24!"))
	assert.Equal(t, "", CleanDescription(" -- "))
}
