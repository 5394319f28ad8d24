package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"nexus/internal/domain/transaction"
)

type TransactionRepository struct {
	s *Store
}

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	var out transaction.Transaction
	err := r.s.do(ctx, func(st *state) error {
		if _, exists := st.transactions[params.ID]; exists {
			return fmt.Errorf("failed to create transaction: id %s already exists", params.ID)
		}
		if err := st.checkCategory(params.CategoryID); err != nil {
			return err
		}
		now := r.s.timestamp()
		t := &transaction.Transaction{
			ID:          params.ID,
			UserID:      params.UserID,
			AccountID:   params.AccountID,
			CategoryID:  params.CategoryID,
			Type:        params.Type,
			Amount:      params.Amount,
			Date:        params.Date.UTC(),
			Description: params.Description,
			Notes:       params.Notes,
			Source:      params.Source,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		st.transactions[t.ID] = t
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string, userID int64) (*transaction.Transaction, error) {
	var out transaction.Transaction
	err := r.s.do(ctx, func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.UserID != userID {
			return transaction.ErrTransactionNotFound
		}
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, id string, userID int64) (*transaction.Transaction, error) {
	return r.GetByID(ctx, id, userID)
}

// List orders by date, newest first, then by creation time
func (r *TransactionRepository) List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	var matched []*transaction.Transaction
	err := r.s.do(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID != userID || !matches(t, filter) {
				continue
			}
			cp := *t
			matched = append(matched, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if filter.Offset >= len(matched) {
		return []*transaction.Transaction{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matches(t *transaction.Transaction, f transaction.ListFilter) bool {
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	day := transaction.StartOfDay(t.Date)
	if f.StartDate != nil && day.Before(transaction.StartOfDay(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && day.After(transaction.StartOfDay(*f.EndDate)) {
		return false
	}
	return true
}

func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	var out transaction.Transaction
	err := r.s.do(ctx, func(st *state) error {
		current, ok := st.transactions[txn.ID]
		if !ok {
			return transaction.ErrTransactionNotFound
		}
		if err := st.checkCategory(txn.CategoryID); err != nil {
			return err
		}
		next := *txn
		next.UserID = current.UserID
		next.Source = current.Source
		next.CreatedAt = current.CreatedAt
		next.Date = next.Date.UTC()
		next.UpdatedAt = r.s.timestamp()
		st.transactions[txn.ID] = &next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.transactions[id]; !ok {
			return transaction.ErrTransactionNotFound
		}
		delete(st.transactions, id)
		return nil
	})
}

func (r *TransactionRepository) FindDuplicates(ctx context.Context, c transaction.DuplicateCriteria) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	err := r.s.do(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID != c.UserID || t.AccountID != c.AccountID || t.Type != c.Type {
				continue
			}
			if !t.Amount.Equal(c.Amount) {
				continue
			}
			if t.Date.Before(c.DateLowerBound) || !t.Date.Before(c.DateUpperBound) {
				continue
			}
			desc := ""
			if t.Description != nil {
				desc = strings.TrimSpace(*t.Description)
			}
			if !strings.EqualFold(desc, c.Description) {
				continue
			}
			cp := *t
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}
