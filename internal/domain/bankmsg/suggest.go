package bankmsg

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/category"
	"nexus/internal/domain/transaction"
)

// SuggestInput is what a suggester sees of a parsed message
type SuggestInput struct {
	Amount      decimal.Decimal
	Description string
	Type        transaction.Type
}

// Suggester proposes a category for a parsed message. A nil id with a nil
// error means no opinion.
type Suggester interface {
	Suggest(ctx context.Context, in SuggestInput, categories []*category.Category) (*int64, error)
}

type keywordRule struct {
	keyword  string
	category string
}

// Checked in order against the lowercased description
var keywordRules = []keywordRule{
	{"grocery", "Groceries"},
	{"supermarket", "Groceries"},
	{"food", "Groceries"},
	{"restaurant", "Dining"},
	{"dining", "Dining"},
	{"uber", "Transport"},
	{"lyft", "Transport"},
	{"petrol", "Transport"},
	{"fuel", "Transport"},
	{"parking", "Transport"},
	{"rent", "Rent & Utilities"},
	{"electricity", "Rent & Utilities"},
	{"water", "Rent & Utilities"},
	{"amazon", "Shopping"},
	{"flipkart", "Shopping"},
	{"shopping", "Shopping"},
	{"medical", "Healthcare"},
	{"pharmacy", "Healthcare"},
	{"hospital", "Healthcare"},
	{"netflix", "Subscriptions"},
	{"spotify", "Subscriptions"},
	{"subscription", "Subscriptions"},
	{"salary", "Income"},
	{"deposit", "Income"},
	{"credited", "Income"},
	{"refund", "Income"},
}

var (
	largeExpense = decimal.NewFromInt(5000)
	smallExpense = decimal.NewFromInt(500)
)

// KeywordSuggester is the rule based suggester. It only proposes categories
// that exist.
type KeywordSuggester struct{}

func (KeywordSuggester) Suggest(ctx context.Context, in SuggestInput, categories []*category.Category) (*int64, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	index := category.NameIndex(categories)
	pick := func(name string) (*int64, bool) {
		id, ok := index[name]
		if !ok {
			return nil, false
		}
		return &id, true
	}

	desc := strings.ToLower(in.Description)
	for _, rule := range keywordRules {
		if strings.Contains(desc, rule.keyword) {
			if id, ok := pick(rule.category); ok {
				return id, nil
			}
		}
	}

	if in.Type == transaction.TypeExpense {
		if in.Amount.GreaterThanOrEqual(largeExpense) {
			if id, ok := pick("Rent & Utilities"); ok {
				return id, nil
			}
		}
		if in.Amount.LessThanOrEqual(smallExpense) {
			if id, ok := pick("Groceries"); ok {
				return id, nil
			}
		}
		for _, name := range []string{"Shopping", "Groceries", "Dining"} {
			if id, ok := pick(name); ok {
				return id, nil
			}
		}
	}
	if in.Type == transaction.TypeIncome {
		if id, ok := pick("Income"); ok {
			return id, nil
		}
	}

	first := categories[0].ID
	return &first, nil
}
