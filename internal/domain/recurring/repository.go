package recurring

import (
	"context"
	"time"
)

// Repository defines the interface for recurring template data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Template, error)

	// GetByID returns ErrTemplateNotFound when the template is missing or owned by another user
	GetByID(ctx context.Context, id string, userID int64) (*Template, error)

	ListByUserID(ctx context.Context, userID int64) ([]*Template, error)

	// Update persists every mutable field of t
	Update(ctx context.Context, t *Template) (*Template, error)

	Delete(ctx context.Context, id string, userID int64) error

	// ListDue returns the user's active templates whose next run date is on or before asOf
	ListDue(ctx context.Context, userID int64, asOf time.Time) ([]*Template, error)

	// ListUsersWithDue returns the distinct owners of due templates
	ListUsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error)

	// Advance moves next_run_date from `from` to `to` only if it still equals
	// `from`. It reports whether the row changed.
	Advance(ctx context.Context, id string, from, to time.Time) (bool, error)
}
