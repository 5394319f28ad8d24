package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
)

// Type is the direction of a transaction's effect on its account balance.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// IsValid reports whether t is a known transaction type.
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Effect returns the signed balance delta that amount of this type produces.
func (t Type) Effect(amount decimal.Decimal) decimal.Decimal {
	if t == TypeExpense {
		return amount.Neg()
	}
	return amount
}

// Source records how a transaction entered the ledger.
type Source string

const (
	SourceManual         Source = "manual"
	SourceRecurring      Source = "recurring"
	SourceBankingMessage Source = "banking_message"
)

// Domain errors
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidAmount        = errors.New("amount must be a non-negative number with at most 2 decimal places")
	ErrInvalidType          = errors.New("transaction type must be 'income' or 'expense'")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateTransaction = errors.New("a matching transaction already exists for this day")
	ErrUnknownCategory      = errors.New("category does not exist")
)

const (
	maxDescriptionLength = 500
	maxNotesLength       = 1000
)

type Transaction struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	AccountID   string          `json:"account_id"`
	CategoryID  *int64          `json:"category_id"`
	Type        Type            `json:"transaction_type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description *string         `json:"description"`
	Notes       *string         `json:"notes"`
	Source      Source          `json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Effect returns the signed delta this transaction contributes to its account.
func (t *Transaction) Effect() decimal.Decimal {
	return t.Type.Effect(t.Amount)
}

type CreateParams struct {
	ID          string
	UserID      int64
	AccountID   string
	CategoryID  *int64
	Type        Type
	Amount      decimal.Decimal
	Date        time.Time
	Description *string
	Notes       *string
	Source      Source

	// SkipDuplicateCheck bypasses same-day duplicate detection. Materialized
	// recurring transactions always set it.
	SkipDuplicateCheck bool
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if !p.Type.IsValid() {
		return ErrInvalidType
	}
	if p.Amount.IsNegative() || !account.IsMoney(p.Amount) {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return errors.New("description must be at most 500 characters")
	}
	if p.Notes != nil && len(*p.Notes) > maxNotesLength {
		return errors.New("notes must be at most 1000 characters")
	}
	return nil
}

// UpdateParams is a partial patch; nil fields keep their current value.
type UpdateParams struct {
	AccountID     *string
	CategoryID    *int64
	ClearCategory bool
	Type          *Type
	Amount        *decimal.Decimal
	Date          *time.Time
	Description   *string
	Notes         *string
}

// Validate validates the patch fields that are present
func (p UpdateParams) Validate() error {
	if p.AccountID != nil && *p.AccountID == "" {
		return errors.New("account ID cannot be empty")
	}
	if p.Type != nil && !p.Type.IsValid() {
		return ErrInvalidType
	}
	if p.Amount != nil && (p.Amount.IsNegative() || !account.IsMoney(*p.Amount)) {
		return ErrInvalidAmount
	}
	if p.Date != nil && p.Date.IsZero() {
		return errors.New("transaction date cannot be empty")
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return errors.New("description must be at most 500 characters")
	}
	if p.Notes != nil && len(*p.Notes) > maxNotesLength {
		return errors.New("notes must be at most 1000 characters")
	}
	return nil
}

// apply returns a copy of t with the patch applied.
func (p UpdateParams) apply(t *Transaction) *Transaction {
	next := *t
	if p.AccountID != nil {
		next.AccountID = *p.AccountID
	}
	if p.ClearCategory {
		next.CategoryID = nil
	} else if p.CategoryID != nil {
		id := *p.CategoryID
		next.CategoryID = &id
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.Description != nil {
		next.Description = p.Description
	}
	if p.Notes != nil {
		next.Notes = p.Notes
	}
	return &next
}

// ListFilter narrows a user's transaction listing. Dates are inclusive days.
type ListFilter struct {
	AccountID  string
	CategoryID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

func (f *ListFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
