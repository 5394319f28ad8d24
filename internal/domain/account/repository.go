package account

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts for a specific user
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// Update applies the non-nil fields of params
	Update(ctx context.Context, id string, params UpdateParams) (*Account, error)

	// Delete removes an account together with its transactions
	Delete(ctx context.Context, id string) error

	// GetForUpdate loads an account owned by userID and holds it locked until the
	// surrounding atomic unit ends. Returns ErrAccountNotFound when the account is
	// missing or belongs to someone else.
	GetForUpdate(ctx context.Context, id string, userID int64) (*Account, error)

	// UpdateBalance overwrites the stored balance
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
}
