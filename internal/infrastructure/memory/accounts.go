package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	var out account.Account
	err := r.s.do(ctx, func(st *state) error {
		if _, exists := st.accounts[params.ID]; exists {
			return fmt.Errorf("failed to create account: id %s already exists", params.ID)
		}
		now := r.s.timestamp()
		a := &account.Account{
			ID:          params.ID,
			UserID:      params.UserID,
			Name:        params.Name,
			AccountType: params.AccountType,
			Currency:    params.Currency,
			Balance:     params.Balance,
			Description: params.Description,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		st.accounts[a.ID] = a
		out = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	var out account.Account
	err := r.s.do(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound
		}
		out = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	var out []*account.Account
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.UserID == userID {
				cp := *a
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *AccountRepository) Update(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error) {
	var out account.Account
	err := r.s.do(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound
		}
		if params.Name != nil {
			a.Name = *params.Name
		}
		if params.Description != nil {
			a.Description = params.Description
		}
		if params.IsActive != nil {
			a.IsActive = *params.IsActive
		}
		a.UpdatedAt = r.s.timestamp()
		out = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the account with its transactions and recurring templates
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.accounts[id]; !ok {
			return account.ErrAccountNotFound
		}
		delete(st.accounts, id)
		for tid, t := range st.transactions {
			if t.AccountID == id {
				delete(st.transactions, tid)
			}
		}
		for tid, t := range st.templates {
			if t.AccountID == id {
				delete(st.templates, tid)
			}
		}
		return nil
	})
}

// GetForUpdate needs no row lock of its own: the unit already holds the store
func (r *AccountRepository) GetForUpdate(ctx context.Context, id string, userID int64) (*account.Account, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return r.s.do(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound
		}
		a.Balance = balance
		a.UpdatedAt = r.s.timestamp()
		return nil
	})
}
