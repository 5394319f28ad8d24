package recurring

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
	"nexus/internal/domain/transaction"
)

// Frequency is how often a template fires
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// IsValid reports whether f is a supported frequency
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Domain errors
var (
	ErrTemplateNotFound = errors.New("recurring transaction not found")
	ErrInvalidFrequency = errors.New("frequency must be 'weekly', 'monthly' or 'yearly'")
	ErrInvalidAmount    = errors.New("amount must be greater than zero with at most 2 decimal places")
	ErrInvalidInput     = errors.New("invalid input")

	// errAlreadyAdvanced marks a template another run advanced first
	errAlreadyAdvanced = errors.New("template already advanced")
)

const (
	DefaultUpcomingCount = 5
	MaxUpcomingCount     = 52
)

// Template produces one transaction every time its next run date comes due.
// Paused templates keep their schedule but never fire.
type Template struct {
	ID          string           `json:"id"`
	UserID      int64            `json:"user_id"`
	AccountID   string           `json:"account_id"`
	CategoryID  *int64           `json:"category_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        transaction.Type `json:"transaction_type"`
	Description *string          `json:"description"`
	Frequency   Frequency        `json:"frequency"`
	NextRunDate time.Time        `json:"next_run_date"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type CreateParams struct {
	ID          string
	UserID      int64
	AccountID   string
	CategoryID  *int64
	Amount      decimal.Decimal
	Type        transaction.Type
	Description *string
	Frequency   Frequency
	NextRunDate time.Time
	IsActive    bool
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if !p.Amount.IsPositive() || !account.IsMoney(p.Amount) {
		return ErrInvalidAmount
	}
	if !p.Type.IsValid() {
		return transaction.ErrInvalidType
	}
	if !p.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if p.NextRunDate.IsZero() {
		return errors.New("next run date is required")
	}
	return nil
}

// UpdateParams is a partial patch; nil fields keep their current value
type UpdateParams struct {
	AccountID     *string
	CategoryID    *int64
	ClearCategory bool
	Amount        *decimal.Decimal
	Type          *transaction.Type
	Description   *string
	Frequency     *Frequency
	NextRunDate   *time.Time
	IsActive      *bool
}

// Validate validates the patch fields that are present
func (p UpdateParams) Validate() error {
	if p.AccountID != nil && *p.AccountID == "" {
		return errors.New("account ID cannot be empty")
	}
	if p.Amount != nil && (!p.Amount.IsPositive() || !account.IsMoney(*p.Amount)) {
		return ErrInvalidAmount
	}
	if p.Type != nil && !p.Type.IsValid() {
		return transaction.ErrInvalidType
	}
	if p.Frequency != nil && !p.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if p.NextRunDate != nil && p.NextRunDate.IsZero() {
		return errors.New("next run date cannot be empty")
	}
	return nil
}

func (p UpdateParams) apply(t *Template) *Template {
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
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Description != nil {
		next.Description = p.Description
	}
	if p.Frequency != nil {
		next.Frequency = *p.Frequency
	}
	if p.NextRunDate != nil {
		next.NextRunDate = transaction.StartOfDay(*p.NextRunDate)
	}
	if p.IsActive != nil {
		next.IsActive = *p.IsActive
	}
	return &next
}

// RunResult reports one pass over due templates. Failures are counted, not raised.
type RunResult struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

func (r *RunResult) merge(other *RunResult) {
	r.Processed += other.Processed
	r.Created += other.Created
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}
