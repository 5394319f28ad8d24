package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/metrics"
	"nexus/internal/domain/transaction"
)

// MetricsSource answers the aggregate queries of the metrics engine
type MetricsSource struct {
	db *DB
}

func NewMetricsSource(db *DB) *MetricsSource {
	return &MetricsSource{db: db}
}

func (s *MetricsSource) TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = $1 AND is_active`,
		userID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

func (s *MetricsSource) SumByType(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND transaction_type = $2
		  AND transaction_date BETWEEN $3 AND $4
	`, userID, typ, dateOnly(start), dateOnly(end)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s transactions: %w", typ, err)
	}
	return total, nil
}

// TopCategories groups uncategorized spend under one row that sorts after any
// category with the same total
func (s *MetricsSource) TopCategories(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time, limit int) ([]metrics.CategoryTotal, error) {
	query := `
		SELECT t.category_id, COALESCE(c.name, $5), SUM(t.amount) AS total
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.transaction_type = $2
		  AND t.transaction_date BETWEEN $3 AND $4
		GROUP BY t.category_id, c.name
		ORDER BY total DESC, t.category_id ASC NULLS LAST
	`
	args := []any{userID, typ, dateOnly(start), dateOnly(end), metrics.UncategorizedLabel}
	if limit > 0 {
		query += ` LIMIT $6`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank categories: %w", err)
	}
	defer rows.Close()

	var out []metrics.CategoryTotal
	for rows.Next() {
		var row metrics.CategoryTotal
		var categoryID sql.NullInt64
		if err := rows.Scan(&categoryID, &row.Category, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		row.CategoryID = int64Ptr(categoryID)
		out = append(out, row)
	}
	return out, rows.Err()
}
