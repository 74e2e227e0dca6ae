package parser

import (
	"sort"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
)

// Field names used in PartialRecord.Fields.
const (
	FieldDate        = "date"
	FieldRawDate     = "raw_date"
	FieldDescription = "description"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
	FieldBalance     = "balance"

	FieldProductID = "product_id"
	FieldQuantity  = "quantity"
	FieldUnitPrice = "unit_price"
	FieldTotal     = "total"

	FieldSection   = "section"
	FieldCategory  = "category"
	FieldRevenue   = "revenue"
	FieldExpenses  = "expenses"
	FieldNetProfit = "net_profit"
)

// RawPage holds the text lines of one page in reading order.
type RawPage struct {
	Number int
	Lines  []string
	// Confidence is the mean OCR word confidence (0-100). Zero when the page
	// came from the text layer or the recognizer does not report one.
	Confidence float64
}

// NewRawPage splits page text into lines.
func NewRawPage(number int, text string) RawPage {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return RawPage{Number: number, Lines: strings.Split(text, "\n")}
}

// JoinPages concatenates pages in order with a newline between them.
func JoinPages(pages []RawPage) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, strings.Join(p.Lines, "\n"))
	}
	return strings.Join(parts, "\n")
}

// PartialRecord is an in-progress record. Values are the matched text after
// light normalization (dates as DD-MM-YYYY, amounts without symbols).
type PartialRecord struct {
	Kind   dto.DocumentKind
	Fields map[string]string
}

func newPartialRecord(kind dto.DocumentKind) *PartialRecord {
	return &PartialRecord{Kind: kind, Fields: make(map[string]string)}
}

// Set stores value under field unless the field already holds a value.
// Empty values are ignored. It reports whether the value was stored.
func (r *PartialRecord) Set(field, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := r.Fields[field]; ok {
		return false
	}
	r.Fields[field] = value
	return true
}

// Get returns the value of field.
func (r *PartialRecord) Get(field string) (string, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// Has reports whether field holds a value.
func (r *PartialRecord) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Clone returns a deep copy of r.
func (r PartialRecord) Clone() PartialRecord {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return PartialRecord{Kind: r.Kind, Fields: fields}
}

func (r PartialRecord) String() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(r.Kind.String())
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(r.Fields[k])
	}
	b.WriteString("}")
	return b.String()
}
