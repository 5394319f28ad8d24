package category

import (
	"context"
	"errors"
)

// Service contains the business logic for category operations
type Service struct {
	repo Repository
}

// NewService creates a new category service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateCategory rejects a name that is already taken
func (s *Service) CreateCategory(ctx context.Context, params CreateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, params.Name)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	return s.repo.Create(ctx, params)
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, params UpdateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if params.Name != nil {
		existing, err := s.repo.GetByName(ctx, *params.Name)
		if err != nil && !errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrCategoryExists
		}
	}

	return s.repo.Update(ctx, id, params)
}
