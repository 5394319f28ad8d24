package metrics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/transaction"
)

// UncategorizedLabel names spend that carries no category.
const UncategorizedLabel = "Uncategorized"

// CategoryTotal is one row of a per-category spend ranking
type CategoryTotal struct {
	CategoryID *int64          `json:"category_id"`
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
}

// Source provides the aggregates the engine is built on. Date bounds are
// inclusive calendar days compared against the transaction's economic date.
// Implemented by the postgres and memory stores.
type Source interface {
	// TotalBalance sums balances over the user's active accounts
	TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	// SumByType sums amounts of one transaction type inside [start, end]
	SumByType(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time) (decimal.Decimal, error)

	// TopCategories ranks categories by summed amount, largest first, ties by
	// ascending category id with uncategorized last
	TopCategories(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time, limit int) ([]CategoryTotal, error)
}
