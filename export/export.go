// Package export writes assembled tables as CSV or XLSX.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx; the empty string means json.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json; charset=utf-8"
	}
}

type transactionRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Balance     string `csv:"balance"`
	Category    string `csv:"category"`
}

type invoiceRow struct {
	ProductID   string `csv:"product_id"`
	Description string `csv:"description"`
	Quantity    int    `csv:"quantity"`
	UnitPrice   string `csv:"unit_price"`
	Total       string `csv:"total"`
	Category    string `csv:"category"`
}

type pnlRow struct {
	Section     string `csv:"section"`
	Category    string `csv:"category"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Revenue     string `csv:"revenue"`
	Expenses    string `csv:"expenses"`
	NetProfit   string `csv:"net_profit"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteCSV writes one header row and one row per record.
func WriteCSV(w io.Writer, table *dto.Table) error {
	var rows any
	switch table.Kind {
	case dto.KindTransaction:
		out := make([]transactionRow, 0, len(table.Transactions))
		for _, r := range table.Transactions {
			out = append(out, transactionRow{
				Date:        r.Date.String(),
				Description: r.Description,
				Debit:       money(r.Debit),
				Credit:      money(r.Credit),
				Balance:     money(r.Balance),
				Category:    r.Category,
			})
		}
		rows = out
	case dto.KindInvoice:
		out := make([]invoiceRow, 0, len(table.Items))
		for _, r := range table.Items {
			out = append(out, invoiceRow{
				ProductID:   r.ProductID,
				Description: r.Description,
				Quantity:    r.Quantity,
				UnitPrice:   money(r.UnitPrice),
				Total:       money(r.Total),
				Category:    r.Category,
			})
		}
		rows = out
	case dto.KindPnL:
		out := make([]pnlRow, 0, len(table.Entries))
		for _, r := range table.Entries {
			out = append(out, pnlRow{
				Section:     r.Section,
				Category:    r.Category,
				Date:        r.Date.String(),
				Description: r.Description,
				Revenue:     money(r.Revenue),
				Expenses:    money(r.Expenses),
				NetProfit:   money(r.NetProfit),
			})
		}
		rows = out
	default:
		return fmt.Errorf("cannot export document kind %s", table.Kind)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// sheet returns the header and cell values of table, with amounts as numbers.
func sheet(table *dto.Table) ([]string, [][]any, error) {
	var rows [][]any
	switch table.Kind {
	case dto.KindTransaction:
		for _, r := range table.Transactions {
			rows = append(rows, []any{r.Date.String(), r.Description, r.Debit.InexactFloat64(), r.Credit.InexactFloat64(), r.Balance.InexactFloat64(), r.Category})
		}
		return []string{"Date", "Description", "Debit", "Credit", "Balance", "Category"}, rows, nil
	case dto.KindInvoice:
		for _, r := range table.Items {
			rows = append(rows, []any{r.ProductID, r.Description, r.Quantity, r.UnitPrice.InexactFloat64(), r.Total.InexactFloat64(), r.Category})
		}
		return []string{"Product ID", "Description", "Quantity", "Unit Price", "Total", "Category"}, rows, nil
	case dto.KindPnL:
		for _, r := range table.Entries {
			rows = append(rows, []any{r.Section, r.Category, r.Date.String(), r.Description, r.Revenue.InexactFloat64(), r.Expenses.InexactFloat64(), r.NetProfit.InexactFloat64()})
		}
		return []string{"Section", "Category", "Date", "Description", "Revenue", "Expenses", "Net Profit"}, rows, nil
	default:
		return nil, nil, fmt.Errorf("cannot export document kind %s", table.Kind)
	}
}

// WriteXLSX writes the table to a single worksheet named after its kind,
// followed by a "projection" sheet with the category/amount view.
func WriteXLSX(w io.Writer, table *dto.Table) error {
	header, rows, err := sheet(table)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	name := table.Kind.String()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, name, header, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet("projection"); err != nil {
		return fmt.Errorf("add projection sheet: %w", err)
	}
	projection := make([][]any, 0, len(table.Projection))
	for _, p := range table.Projection {
		projection = append(projection, []any{p.Category, p.Amount.InexactFloat64()})
	}
	if err := writeSheet(f, "projection", []string{"Category", "Amount"}, projection); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &headerCells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(name, 1, 1, style)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// Write encodes table as CSV or XLSX.
func Write(w io.Writer, table *dto.Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table)
	default:
		return fmt.Errorf("export does not handle format %q", format)
	}
}
