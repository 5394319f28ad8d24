package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
)

// DuplicateCriteria defines the search criteria for finding a same-day duplicate
type DuplicateCriteria struct {
	UserID         int64
	AccountID      string
	Type           Type
	Amount         decimal.Decimal
	Description    string    // compared case-insensitively, empty matches a missing description
	DateLowerBound time.Time // inclusive
	DateUpperBound time.Time // exclusive
}

// Repository defines the interface for transaction data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	// GetByID returns ErrTransactionNotFound when the row is missing or owned by another user
	GetByID(ctx context.Context, id string, userID int64) (*Transaction, error)
	// GetForUpdate is GetByID that also locks the row for the enclosing atomic unit
	GetForUpdate(ctx context.Context, id string, userID int64) (*Transaction, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error)
	// Update persists every mutable field of txn
	Update(ctx context.Context, txn *Transaction) (*Transaction, error)
	Delete(ctx context.Context, id string) error
	FindDuplicates(ctx context.Context, criteria DuplicateCriteria) ([]*Transaction, error)
}

// AccountLocker is the slice of the account store the mutation protocol needs.
// account.Repository satisfies it.
type AccountLocker interface {
	GetForUpdate(ctx context.Context, id string, userID int64) (*account.Account, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
}

// Transactor runs fn as one atomic unit: every write made through ctx inside fn
// commits together or not at all. A call made with a ctx that already carries a
// unit joins it instead of starting a new one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
