package bankmsg

import (
	"context"
)

// Repository defines the interface for banking message data access
type Repository interface {
	Create(ctx context.Context, msg *Message) (*Message, error)
	// GetByID returns ErrMessageNotFound when the message is missing or owned by another user
	GetByID(ctx context.Context, id int64, userID int64) (*Message, error)
	// ListByUserID returns the newest messages first
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*Message, error)
	// LinkTransaction records the transaction a message was converted into.
	// It reports false when the message is already linked.
	LinkTransaction(ctx context.Context, id int64, transactionID string) (bool, error)
}
