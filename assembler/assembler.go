// Package assembler turns partial records into typed, validated tables.
package assembler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/parser"
	"github.com/shopspring/decimal"
)

// Assemble builds the table for kind. Missing columns default to zero or the
// empty string, transactions without a valid date are dropped, derived
// fields are filled in and rows are ordered by date (invoices keep their
// extraction order). The input is not modified.
func Assemble(kind dto.DocumentKind, records []parser.PartialRecord) (*dto.Table, error) {
	table := dto.NewTable(kind)
	switch kind {
	case dto.KindTransaction:
		table.Transactions = assembleTransactions(records)
	case dto.KindInvoice:
		table.Items = assembleInvoice(records)
	case dto.KindPnL:
		table.Entries = assemblePnL(records)
	default:
		return nil, fmt.Errorf("cannot assemble document kind %s", kind)
	}
	table.Projection = Project(table)
	return table, nil
}

func assembleTransactions(records []parser.PartialRecord) []dto.TransactionRecord {
	rows := make([]dto.TransactionRecord, 0, len(records))
	for _, rec := range records {
		date, ok := recordDate(rec)
		if !ok {
			continue
		}
		rows = append(rows, dto.TransactionRecord{
			Date:        date,
			Description: rec.Fields[parser.FieldDescription],
			Debit:       amount(rec, parser.FieldDebit),
			Credit:      amount(rec, parser.FieldCredit),
			Balance:     amount(rec, parser.FieldBalance),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date.Time)
	})
	return rows
}

func assembleInvoice(records []parser.PartialRecord) []dto.InvoiceItem {
	items := make([]dto.InvoiceItem, 0, len(records))
	for _, rec := range records {
		item := dto.InvoiceItem{
			ProductID:   rec.Fields[parser.FieldProductID],
			Description: rec.Fields[parser.FieldDescription],
			Quantity:    quantity(rec),
			UnitPrice:   amount(rec, parser.FieldUnitPrice),
		}
		if rec.Has(parser.FieldTotal) {
			item.Total = amount(rec, parser.FieldTotal)
		} else {
			item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		items = append(items, item)
	}
	return items
}

func assemblePnL(records []parser.PartialRecord) []dto.PnLEntry {
	entries := make([]dto.PnLEntry, 0, len(records))
	for _, rec := range records {
		date, _ := recordDate(rec)
		entry := dto.PnLEntry{
			Section:     rec.Fields[parser.FieldSection],
			Category:    rec.Fields[parser.FieldCategory],
			Date:        date,
			Description: rec.Fields[parser.FieldDescription],
			Revenue:     amount(rec, parser.FieldRevenue),
			Expenses:    amount(rec, parser.FieldExpenses),
			NetProfit:   amount(rec, parser.FieldNetProfit),
		}
		if entry.NetProfit.IsZero() {
			entry.NetProfit = entry.Revenue.Sub(entry.Expenses)
		}
		entries = append(entries, entry)
	}
	// Undated entries keep their relative order after the dated ones.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Date, entries[j].Date
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.Before(b.Time)
		}
	})
	return entries
}

// Project returns the two-column category/amount view of table.
func Project(table *dto.Table) []dto.ProjectionRow {
	rows := make([]dto.ProjectionRow, 0, table.Len())
	switch table.Kind {
	case dto.KindTransaction:
		for _, r := range table.Transactions {
			rows = append(rows, dto.ProjectionRow{Category: r.Description, Amount: r.Debit.Add(r.Credit)})
		}
	case dto.KindInvoice:
		for _, r := range table.Items {
			rows = append(rows, dto.ProjectionRow{Category: r.Description, Amount: r.UnitPrice})
		}
	case dto.KindPnL:
		for _, r := range table.Entries {
			rows = append(rows, dto.ProjectionRow{Category: r.Category, Amount: r.NetProfit})
		}
	}
	return rows
}

func recordDate(rec parser.PartialRecord) (dto.Date, bool) {
	raw, ok := rec.Fields[parser.FieldDate]
	if !ok {
		return dto.Date{}, false
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return dto.Date{}, false
	}
	return d, true
}

func amount(rec parser.PartialRecord, field string) decimal.Decimal {
	raw, ok := rec.Fields[field]
	if !ok {
		return decimal.Zero
	}
	v, err := parser.ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func quantity(rec parser.PartialRecord) int {
	raw, ok := rec.Fields[parser.FieldQuantity]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
