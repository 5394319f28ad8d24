package bankmsg

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/transaction"
)

// Domain errors
var (
	ErrMessageNotFound  = errors.New("banking message not found")
	ErrEmptyMessage     = errors.New("raw_text is required")
	ErrNotConvertible   = errors.New("message has no parsed amount")
	ErrAlreadyConverted = errors.New("message was already converted to a transaction")
	ErrMessageTooLong   = errors.New("raw_text must be at most 5000 characters")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	maxRawTextLength     = 5000
	defaultMessageSource = "manual"
)

// Message is a stored bank SMS or notification together with what the parser
// extracted from it
type Message struct {
	ID                  int64             `json:"id"`
	UserID              int64             `json:"user_id"`
	RawText             string            `json:"raw_text"`
	Source              string            `json:"source"`
	ParsedAmount        *decimal.Decimal  `json:"parsed_amount"`
	ParsedDate          *time.Time        `json:"parsed_date"`
	ParsedDescription   *string           `json:"parsed_description"`
	ParsedType          *transaction.Type `json:"parsed_type"`
	SuggestedCategoryID *int64            `json:"suggested_category_id"`
	TransactionID       *string           `json:"transaction_id"`
	CreatedAt           time.Time         `json:"created_at"`
}

// ParseResult is the preview returned without storing anything
type ParseResult struct {
	Amount                *decimal.Decimal `json:"amount"`
	Date                  *time.Time       `json:"date"`
	Description           string           `json:"description"`
	Type                  transaction.Type `json:"transaction_type"`
	SuggestedCategoryID   *int64           `json:"suggested_category_id"`
	SuggestedCategoryName *string          `json:"suggested_category_name"`
}

type CreateParams struct {
	UserID  int64
	RawText string
	Source  string
}

func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.RawText == "" {
		return ErrEmptyMessage
	}
	if len(p.RawText) > maxRawTextLength {
		return ErrMessageTooLong
	}
	return nil
}

// ConvertParams picks the account a message is booked on. CategoryID overrides
// the stored suggestion.
type ConvertParams struct {
	AccountID  string
	CategoryID *int64
}
