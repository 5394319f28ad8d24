package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Allowed account types for validation
	accountTypes = map[string]struct{}{
		"checking":    {},
		"savings":     {},
		"credit_card": {},
		"investment":  {},
		"loan":        {},
		"cash":        {},
		"other":       {},
	}
	// Common ISO 4217 currency codes
	validCurrencies = map[string]struct{}{
		"BRL": {}, "USD": {}, "EUR": {}, "GBP": {}, "JPY": {},
		"CHF": {}, "CAD": {}, "AUD": {}, "NZD": {}, "CNY": {},
		"INR": {}, "MXN": {}, "ZAR": {}, "SEK": {}, "NOK": {},
		"DKK": {}, "PLN": {}, "TRY": {}, "IRR": {}, "KRW": {},
		"SGD": {}, "HKD": {}, "ARS": {}, "AED": {}, "KES": {},
	}
)

// DefaultCurrency is applied when an account is created without one.
const DefaultCurrency = "USD"

// MoneyScale is the number of decimal places stored for amounts and balances.
const MoneyScale = 2

// IsMoney reports whether d is representable at MoneyScale without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// Domain errors
var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrAccountNotFound    = errors.New("account not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCurrency    = errors.New("valid ISO 4217 currency is required")
	ErrNothingToUpdate    = errors.New("no fields to update")
	ErrInvalidBalance     = errors.New("opening balance must have at most 2 decimal places")
)

// Account is a balance-holding container owned by one user. Balance is only
// ever written by the transaction mutation protocol after creation.
type Account struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	AccountType string          `json:"account_type"`
	Currency    string          `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	Description *string         `json:"description"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateParams contains parameters for creating a new account.
// Balance is the opening balance.
type CreateParams struct {
	ID          string
	UserID      int64
	Name        string
	AccountType string
	Currency    string
	Balance     decimal.Decimal
	Description *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if len(p.Name) > 100 {
		return errors.New("account name must be at most 100 characters")
	}
	if p.AccountType == "" {
		return errors.New("account type is required")
	}
	if !IsValidAccountType(p.AccountType) {
		return ErrInvalidAccountType
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	if !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	if !IsMoney(p.Balance) {
		return ErrInvalidBalance
	}
	return nil
}

// UpdateParams patches the descriptive fields of an account. Nil fields are
// left unchanged. The balance is not patchable.
type UpdateParams struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (p UpdateParams) Validate() error {
	if p.Name == nil && p.Description == nil && p.IsActive == nil {
		return ErrNothingToUpdate
	}
	if p.Name != nil {
		if *p.Name == "" {
			return errors.New("account name is required")
		}
		if len(*p.Name) > 100 {
			return errors.New("account name must be at most 100 characters")
		}
	}
	return nil
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}
