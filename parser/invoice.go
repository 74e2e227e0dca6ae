package parser

import (
	"regexp"
	"strings"
)

var (
	productAnchorRe = regexp.MustCompile(`(?i)\b(?:Product|Item)\b\s*(?:(?:ID|No)\b\.?|#)?\s*[:#]?\s*([A-Za-z0-9][\w\-]*)`)

	quantityLabelRe = regexp.MustCompile(`(?i)\b(?:Qty|Quantity)\b\.?\s*[:#]?\s*(\d+)`)
	priceLabelRe    = regexp.MustCompile(`(?i)\b(?:Unit\s+Price|Price|Rate)\b\s*[:#]?\s*(` + amountPattern + `)`)
	totalLabelRe    = regexp.MustCompile(`(?i)\b(?:Amount|Total)\b\s*[:#]?\s*(` + amountPattern + `)`)
	anyLabelRe      = regexp.MustCompile(`(?i)\b(?:Qty|Quantity|Unit\s+Price|Price|Rate|Amount|Total)\b`)
)

// headerWords are column titles that follow "Item" or "Product" on table
// header rows; such rows are not line items.
var headerWords = map[string]bool{
	"description": true,
	"desc":        true,
	"details":     true,
	"name":        true,
	"code":        true,
	"qty":         true,
	"quantity":    true,
	"price":       true,
	"rate":        true,
	"amount":      true,
	"total":       true,
}

var invoiceRules = []Rule{
	{
		Name:    "product_id",
		Pattern: productAnchorRe,
		Accept: func(line string, m []int) bool {
			return !headerWords[strings.ToLower(line[m[2]:m[3]])]
		},
		Handle: handleInvoice,
	},
}

func handleInvoice(s *state, rec *PartialRecord, line string, m []int) {
	rec.Set(FieldProductID, line[m[2]:m[3]])
	fillInvoice(rec, line[m[1]:])
}

func continueInvoice(s *state, rec *PartialRecord, line string) bool {
	return fillInvoice(rec, line)
}

// fillInvoice reads labeled quantity, price and total from rest, falling
// back to the position of the amounts when no label is present.
func fillInvoice(rec *PartialRecord, rest string) bool {
	tokens := FindAmounts(rest)

	cut := len(rest)
	if loc := anyLabelRe.FindStringIndex(rest); loc != nil {
		cut = loc[0]
	}
	if len(tokens) > 0 && tokens[0].Start < cut {
		cut = tokens[0].Start
	}
	filled := rec.Set(FieldDescription, CleanDescription(rest[:cut]))

	labeled := false
	if m := quantityLabelRe.FindStringSubmatch(rest); m != nil {
		labeled = true
		filled = rec.Set(FieldQuantity, m[1]) || filled
	}
	if m := priceLabelRe.FindStringSubmatch(rest); m != nil {
		labeled = true
		filled = setAmount(rec, FieldUnitPrice, m[1]) || filled
	}
	if m := totalLabelRe.FindStringSubmatch(rest); m != nil {
		labeled = true
		filled = setAmount(rec, FieldTotal, m[1]) || filled
	}
	if labeled || len(tokens) == 0 {
		return filled
	}
	if rec.Has(FieldQuantity) || rec.Has(FieldUnitPrice) || rec.Has(FieldTotal) {
		return filled
	}

	switch n := len(tokens); {
	case n == 1:
		if tokens[0].Value.IsInteger() && !strings.Contains(tokens[0].Text, ".") {
			rec.Set(FieldQuantity, tokens[0].Value.String())
		} else {
			rec.Set(FieldTotal, amountString(tokens[0].Value))
		}
	default:
		if tokens[0].Value.IsInteger() {
			rec.Set(FieldQuantity, tokens[0].Value.String())
		}
		rec.Set(FieldUnitPrice, amountString(tokens[1].Value))
		if n >= 3 {
			rec.Set(FieldTotal, amountString(tokens[n-1].Value))
		}
	}
	return true
}

func setAmount(rec *PartialRecord, field, text string) bool {
	v, err := ParseAmount(text)
	if err != nil {
		return false
	}
	return rec.Set(field, amountString(v))
}
