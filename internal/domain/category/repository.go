package category

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	// List returns every category ordered by name
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Category, error)
}
