package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/metrics"
	"nexus/internal/domain/transaction"
)

// TotalBalance implements metrics.Source
func (s *Store) TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.UserID == userID && a.IsActive {
				total = total.Add(a.Balance)
			}
		}
		return nil
	})
	return total, err
}

// SumByType implements metrics.Source
func (s *Store) SumByType(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time) (decimal.Decimal, error) {
	window := metrics.Window{Start: metrics.Day(start), End: metrics.Day(end)}
	total := decimal.Zero
	err := s.do(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID == userID && t.Type == typ && window.Contains(t.Date) {
				total = total.Add(t.Amount)
			}
		}
		return nil
	})
	return total, err
}

// TopCategories implements metrics.Source
func (s *Store) TopCategories(ctx context.Context, userID int64, typ transaction.Type, start, end time.Time, limit int) ([]metrics.CategoryTotal, error) {
	window := metrics.Window{Start: metrics.Day(start), End: metrics.Day(end)}
	var out []metrics.CategoryTotal

	err := s.do(ctx, func(st *state) error {
		totals := make(map[int64]decimal.Decimal)
		uncategorized := decimal.Zero
		hasUncategorized := false

		for _, t := range st.transactions {
			if t.UserID != userID || t.Type != typ || !window.Contains(t.Date) {
				continue
			}
			if t.CategoryID == nil {
				uncategorized = uncategorized.Add(t.Amount)
				hasUncategorized = true
				continue
			}
			totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
		}

		for id, total := range totals {
			name := metrics.UncategorizedLabel
			if c, ok := st.categories[id]; ok {
				name = c.Name
			}
			catID := id
			out = append(out, metrics.CategoryTotal{CategoryID: &catID, Category: name, Total: total})
		}
		if hasUncategorized {
			out = append(out, metrics.CategoryTotal{Category: metrics.UncategorizedLabel, Total: uncategorized})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		if a.CategoryID == nil || b.CategoryID == nil {
			return b.CategoryID == nil && a.CategoryID != nil
		}
		return *a.CategoryID < *b.CategoryID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
