package transaction

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DuplicateWindow is the span, starting at midnight UTC of the transaction
// date, inside which an identical manual entry counts as a duplicate.
const DuplicateWindow = 24 * time.Hour

// Service applies the balance-consistent mutation protocol: every create,
// update and delete changes the transaction row and the affected account
// balances inside one atomic unit.
type Service struct {
	repo     Repository
	accounts AccountLocker
	tx       Transactor
}

// NewService creates a new transaction service
func NewService(repo Repository, accounts AccountLocker, tx Transactor) *Service {
	return &Service{repo: repo, accounts: accounts, tx: tx}
}

// CreateTransaction records a transaction and applies its effect to the owning
// account. The account must exist and belong to params.UserID.
func (s *Service) CreateTransaction(ctx context.Context, params CreateParams) (*Transaction, error) {
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	if params.Source == "" {
		params.Source = SourceManual
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetForUpdate(ctx, params.AccountID, params.UserID)
		if err != nil {
			return err
		}

		if !params.SkipDuplicateCheck {
			if err := s.checkDuplicate(ctx, params); err != nil {
				return err
			}
		}

		created, err = s.repo.Create(ctx, params)
		if err != nil {
			return err
		}

		return s.accounts.UpdateBalance(ctx, acc.ID, acc.Balance.Add(created.Effect()))
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetTransaction returns a transaction owned by userID
func (s *Service) GetTransaction(ctx context.Context, id string, userID int64) (*Transaction, error) {
	if id == "" {
		return nil, ErrTransactionNotFound
	}
	return s.repo.GetByID(ctx, id, userID)
}

// ListTransactions returns the user's transactions, newest first
func (s *Service) ListTransactions(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	filter.normalize()
	return s.repo.List(ctx, userID, filter)
}

// UpdateTransaction patches a transaction. The old effect is always reversed
// on the old account and the new effect applied on the (possibly different)
// new account, whatever fields the patch touches.
func (s *Service) UpdateTransaction(ctx context.Context, id string, userID int64, params UpdateParams) (*Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var updated *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}
		next := params.apply(current)

		balances, err := s.lockBalances(ctx, userID, current.AccountID, next.AccountID)
		if err != nil {
			return err
		}

		balances[current.AccountID] = balances[current.AccountID].Sub(current.Effect())
		balances[next.AccountID] = balances[next.AccountID].Add(next.Effect())

		if err := s.writeBalances(ctx, balances); err != nil {
			return err
		}

		updated, err = s.repo.Update(ctx, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect
func (s *Service) DeleteTransaction(ctx context.Context, id string, userID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}

		acc, err := s.accounts.GetForUpdate(ctx, current.AccountID, userID)
		if err != nil {
			return err
		}

		if err := s.accounts.UpdateBalance(ctx, acc.ID, acc.Balance.Sub(current.Effect())); err != nil {
			return err
		}

		return s.repo.Delete(ctx, current.ID)
	})
}

// lockBalances locks every distinct account in ID order and returns their
// current balances keyed by account ID.
func (s *Service) lockBalances(ctx context.Context, userID int64, accountIDs ...string) (map[string]decimal.Decimal, error) {
	ids := make([]string, 0, len(accountIDs))
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	balances := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		acc, err := s.accounts.GetForUpdate(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		balances[acc.ID] = acc.Balance
	}
	return balances, nil
}

func (s *Service) writeBalances(ctx context.Context, balances map[string]decimal.Decimal) error {
	ids := make([]string, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := s.accounts.UpdateBalance(ctx, id, balances[id]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkDuplicate(ctx context.Context, params CreateParams) error {
	day := StartOfDay(params.Date)
	description := ""
	if params.Description != nil {
		description = strings.TrimSpace(*params.Description)
	}

	matches, err := s.repo.FindDuplicates(ctx, DuplicateCriteria{
		UserID:         params.UserID,
		AccountID:      params.AccountID,
		Type:           params.Type,
		Amount:         params.Amount,
		Description:    description,
		DateLowerBound: day,
		DateUpperBound: day.Add(DuplicateWindow),
	})
	if err != nil {
		return err
	}

	if len(matches) > 0 {
		log.Printf("Duplicate transaction rejected for user %d: matches %s", params.UserID, matches[0].ID)
		return ErrDuplicateTransaction
	}
	return nil
}

// StartOfDay truncates t to midnight UTC of its calendar date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
