// Package categorize assigns spending categories to assembled records.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Categorizer labels a record description. An empty label means the
// description could not be categorized.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (string, error)
}

// Rule maps keywords to a category label.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules covers common statement and invoice vocabulary.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Groceries", Keywords: []string{"grocery", "supermarket", "market", "walmart", "tesco", "aldi"}},
		{Category: "Dining", Keywords: []string{"restaurant", "cafe", "coffee", "starbucks", "pizza", "bar"}},
		{Category: "Transport", Keywords: []string{"uber", "lyft", "taxi", "fuel", "petrol", "gas station", "parking", "metro"}},
		{Category: "Utilities", Keywords: []string{"electric", "electricity", "water", "internet", "phone", "utility"}},
		{Category: "Housing", Keywords: []string{"rent", "mortgage", "lease"}},
		{Category: "Income", Keywords: []string{"salary", "payroll", "interest", "dividend", "refund"}},
		{Category: "Cash", Keywords: []string{"atm", "withdrawal", "cash"}},
		{Category: "Transfers", Keywords: []string{"transfer", "neft", "imps", "upi", "wire"}},
		{Category: "Office Supplies", Keywords: []string{"paper", "notebook", "pen", "stapler", "toner"}},
		{Category: "Hardware", Keywords: []string{"widget", "gadget", "bolt", "hinge", "screw", "cable"}},
	}
}

type keyword struct {
	normalized string
	category   string
}

// KeywordCategorizer scores every keyword against the description with
// containment, edit distance and fuzzy subsequence ranking, and returns the
// category of the best keyword scoring at least the threshold (0-100).
type KeywordCategorizer struct {
	keywords  []keyword
	threshold int
}

func NewKeywordCategorizer(rules []Rule, threshold int) *KeywordCategorizer {
	kc := &KeywordCategorizer{threshold: threshold}
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			n := strings.ToUpper(strings.TrimSpace(kw))
			if n == "" {
				continue
			}
			kc.keywords = append(kc.keywords, keyword{normalized: n, category: rule.Category})
		}
	}
	return kc
}

func (kc *KeywordCategorizer) Categorize(ctx context.Context, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := strings.ToUpper(strings.TrimSpace(description))
	if normalized == "" {
		return "", nil
	}

	best, bestScore := "", kc.threshold-1
	for _, kw := range kc.keywords {
		if score := bestWordScore(normalized, kw.normalized); score > bestScore {
			best, bestScore = kw.category, score
		}
	}
	return best, nil
}

// bestWordScore compares the keyword with the whole description and with
// each of its words, returning the highest score.
func bestWordScore(description, kw string) int {
	best := score(description, kw)
	for _, word := range strings.Fields(description) {
		best = max(best, score(word, kw))
	}
	return best
}

// score returns a similarity between 0 and 100.
func score(s, kw string) int {
	if s == kw {
		return 100
	}
	if containsWord(s, kw) {
		return 75 + 25*len(kw)/len(s)
	}

	maxLen := max(len(s), len(kw))
	distance := fuzzy.LevenshteinDistance(s, kw)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	fuzzyScore := 0
	if rank := fuzzy.RankMatchNormalizedFold(kw, s); rank >= 0 && rank < len(s) {
		fuzzyScore = 60 - rank*40/len(s)
	}
	return max(levenshteinScore, fuzzyScore)
}

func containsWord(s, kw string) bool {
	for i := strings.Index(s, kw); i >= 0; {
		end := i + len(kw)
		if (i == 0 || s[i-1] == ' ') && (end == len(s) || s[end] == ' ') {
			return true
		}
		next := strings.Index(s[i+1:], kw)
		if next < 0 {
			break
		}
		i += 1 + next
	}
	return false
}

// Apply labels the transactions and invoice items of table in place. A nil
// categorizer leaves categories empty. Profit-and-loss entries already carry
// their statement category and are left alone.
func Apply(ctx context.Context, table *dto.Table, c Categorizer) error {
	if c == nil || table == nil {
		return nil
	}
	switch table.Kind {
	case dto.KindTransaction:
		for i := range table.Transactions {
			label, err := c.Categorize(ctx, table.Transactions[i].Description)
			if err != nil {
				return fmt.Errorf("categorize transaction %d: %w", i, err)
			}
			table.Transactions[i].Category = label
		}
	case dto.KindInvoice:
		for i := range table.Items {
			label, err := c.Categorize(ctx, table.Items[i].Description)
			if err != nil {
				return fmt.Errorf("categorize item %d: %w", i, err)
			}
			table.Items[i].Category = label
		}
	case dto.KindPnL:
	default:
		return fmt.Errorf("cannot categorize document kind %s", table.Kind)
	}
	return nil
}
