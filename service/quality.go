package service

import (
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/parser"
)

// LowQualityScore is the score under which extracted text is logged as
// probably unreadable.
const LowQualityScore = 30.0

// LowConfidence is the mean OCR word confidence under which a document is
// logged as a poor scan.
const LowConfidence = 60.0

var qualityKeywords = map[dto.DocumentKind][]string{
	dto.KindTransaction: {"date", "balance", "debit", "credit", "withdrawal", "deposit", "statement", "account", "cr", "dr"},
	dto.KindInvoice:     {"invoice", "product", "item", "qty", "quantity", "price", "rate", "total", "amount"},
	dto.KindPnL:         {"revenue", "income", "sales", "expense", "expenses", "cost", "profit", "loss", "gross", "net"},
}

// TextQuality scores extracted text from 0 to 100 by its length and by the
// presence of words expected in documents of kind.
func TextQuality(kind dto.DocumentKind, text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	score := 0.0

	// Length score (max 40 points)
	switch n := len(text); {
	case n > 500:
		score += 40
	case n > 100:
		score += 20
	case n > 20:
		score += 10
	}

	// Keyword score (max 60 points)
	keywords := qualityKeywords[kind]
	if len(keywords) == 0 {
		return score
	}
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		words[w] = true
	}
	found := 0
	for _, kw := range keywords {
		if words[kw] {
			found++
		}
	}
	score += min(12*float64(found), 60)
	return score
}

// MeanConfidence averages the OCR confidence of the pages that report one.
// ok is false when no page does.
func MeanConfidence(pages []parser.RawPage) (mean float64, ok bool) {
	var sum float64
	n := 0
	for _, p := range pages {
		if p.Confidence > 0 {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
