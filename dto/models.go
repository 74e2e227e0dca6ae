package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind selects the extraction rules and record shape for a document.
type DocumentKind int

const (
	KindTransaction DocumentKind = iota + 1
	KindInvoice
	KindPnL
)

// AllKinds lists every supported document kind in a stable order.
var AllKinds = []DocumentKind{KindTransaction, KindInvoice, KindPnL}

func (k DocumentKind) String() string {
	switch k {
	case KindTransaction:
		return "bank_statement"
	case KindInvoice:
		return "invoice"
	case KindPnL:
		return "profit_loss"
	default:
		return fmt.Sprintf("DocumentKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindTransaction, KindInvoice, KindPnL:
		return true
	default:
		return false
	}
}

// ParseDocumentKind maps the names used by the HTTP API and CLI to a kind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank_statement", "transaction", "transactions", "statement":
		return KindTransaction, nil
	case "invoice", "invoices":
		return KindInvoice, nil
	case "profit_loss", "pnl", "p&l":
		return KindPnL, nil
	default:
		return 0, fmt.Errorf("unknown document kind %q", s)
	}
}

// DateLayout is the canonical rendering of record dates.
const DateLayout = "02-01-2006"

// Date is a calendar date. The zero value means no date was extracted.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a date in the canonical DD-MM-YYYY layout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ISO renders the date as YYYY-MM-DD for consumers that need sortable strings.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TransactionRecord is one bank statement line.
type TransactionRecord struct {
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	Category    string          `json:"category,omitempty"`
}

// InvoiceItem is one invoice line item.
type InvoiceItem struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Category    string          `json:"category,omitempty"`
}

// PnLEntry is one profit-and-loss statement entry.
type PnLEntry struct {
	Section     string          `json:"section"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

// ProjectionRow is one row of the two-column view used for charting.
type ProjectionRow struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Table is the assembled output of one document. Only the slice matching
// Kind is populated.
type Table struct {
	Kind         DocumentKind        `json:"-"`
	KindName     string              `json:"kind"`
	Transactions []TransactionRecord `json:"transactions,omitempty"`
	Items        []InvoiceItem       `json:"items,omitempty"`
	Entries      []PnLEntry          `json:"entries,omitempty"`
	Projection   []ProjectionRow     `json:"projection"`
}

// MarshalJSON always emits the record array of the table's own kind, as []
// when the table is empty, and omits the arrays of the other kinds.
func (t Table) MarshalJSON() ([]byte, error) {
	out := struct {
		KindName     string               `json:"kind"`
		Transactions *[]TransactionRecord `json:"transactions,omitempty"`
		Items        *[]InvoiceItem       `json:"items,omitempty"`
		Entries      *[]PnLEntry          `json:"entries,omitempty"`
		Projection   []ProjectionRow      `json:"projection"`
	}{
		KindName:   t.KindName,
		Projection: t.Projection,
	}
	if out.KindName == "" && t.Kind.Valid() {
		out.KindName = t.Kind.String()
	}
	if out.Projection == nil {
		out.Projection = []ProjectionRow{}
	}

	switch t.Kind {
	case KindTransaction:
		rows := t.Transactions
		if rows == nil {
			rows = []TransactionRecord{}
		}
		out.Transactions = &rows
	case KindInvoice:
		rows := t.Items
		if rows == nil {
			rows = []InvoiceItem{}
		}
		out.Items = &rows
	case KindPnL:
		rows := t.Entries
		if rows == nil {
			rows = []PnLEntry{}
		}
		out.Entries = &rows
	}
	return json.Marshal(out)
}

// NewTable returns an empty table for kind.
func NewTable(kind DocumentKind) *Table {
	return &Table{
		Kind:       kind,
		KindName:   kind.String(),
		Projection: []ProjectionRow{},
	}
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	switch t.Kind {
	case KindTransaction:
		return len(t.Transactions)
	case KindInvoice:
		return len(t.Items)
	case KindPnL:
		return len(t.Entries)
	default:
		return 0
	}
}

// Descriptions returns the description column in row order.
func (t *Table) Descriptions() []string {
	out := make([]string, 0, t.Len())
	switch t.Kind {
	case KindTransaction:
		for _, r := range t.Transactions {
			out = append(out, r.Description)
		}
	case KindInvoice:
		for _, r := range t.Items {
			out = append(out, r.Description)
		}
	case KindPnL:
		for _, r := range t.Entries {
			out = append(out, r.Description)
		}
	}
	return out
}
