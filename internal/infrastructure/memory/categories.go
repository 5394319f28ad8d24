package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"nexus/internal/domain/category"
)

type CategoryRepository struct {
	s *Store
}

func (st *state) insertCategory(params category.CreateParams, now time.Time) *category.Category {
	st.nextCategoryID++
	c := &category.Category{
		ID:          st.nextCategoryID,
		Name:        params.Name,
		Description: params.Description,
		Color:       params.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	st.categories[c.ID] = c
	return c
}

func (r *CategoryRepository) Create(ctx context.Context, params category.CreateParams) (*category.Category, error) {
	var out category.Category
	err := r.s.do(ctx, func(st *state) error {
		if findCategory(st, params.Name) != nil {
			return category.ErrCategoryExists
		}
		out = *st.insertCategory(params, r.s.timestamp())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	var out category.Category
	err := r.s.do(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return category.ErrCategoryNotFound
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByName matches names case-insensitively
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*category.Category, error) {
	var out category.Category
	err := r.s.do(ctx, func(st *state) error {
		c := findCategory(st, name)
		if c == nil {
			return category.ErrCategoryNotFound
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*category.Category, error) {
	var out []*category.Category
	err := r.s.do(ctx, func(st *state) error {
		for _, c := range st.categories {
			cp := *c
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, params category.UpdateParams) (*category.Category, error) {
	var out category.Category
	err := r.s.do(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return category.ErrCategoryNotFound
		}
		if params.Name != nil {
			c.Name = *params.Name
		}
		if params.Description != nil {
			c.Description = params.Description
		}
		if params.Color != nil {
			c.Color = params.Color
		}
		c.UpdatedAt = r.s.timestamp()
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findCategory(st *state, name string) *category.Category {
	for _, c := range st.categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}
