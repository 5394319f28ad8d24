package category

import (
	"errors"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category name already exists")
)

// Category labels transactions for spend rankings. Categories are shared by
// every user of the instance.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateParams struct {
	Name        string
	Description *string
	Color       *string
}

func (p *CreateParams) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Name) > 100 {
		return errors.New("name must be 100 characters or less")
	}
	if p.Color != nil && len(*p.Color) > 20 {
		return errors.New("color must be 20 characters or less")
	}
	if p.Description != nil && len(*p.Description) > 500 {
		return errors.New("description must be 500 characters or less")
	}
	return nil
}

type UpdateParams struct {
	Name        *string
	Description *string
	Color       *string
}

func (p *UpdateParams) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.Name != nil && len(*p.Name) > 100 {
		return errors.New("name must be 100 characters or less")
	}
	if p.Color != nil && len(*p.Color) > 20 {
		return errors.New("color must be 20 characters or less")
	}
	if p.Description != nil && len(*p.Description) > 500 {
		return errors.New("description must be 500 characters or less")
	}
	return nil
}

// NameIndex maps category names to ids
func NameIndex(categories []*Category) map[string]int64 {
	index := make(map[string]int64, len(categories))
	for _, c := range categories {
		index[c.Name] = c.ID
	}
	return index
}

// Defaults are the categories every fresh store starts with
func Defaults() []CreateParams {
	seed := []struct{ name, color string }{
		{"Groceries", "#4CAF50"},
		{"Dining", "#FF9800"},
		{"Transport", "#2196F3"},
		{"Rent & Utilities", "#795548"},
		{"Shopping", "#E91E63"},
		{"Healthcare", "#F44336"},
		{"Subscriptions", "#9C27B0"},
		{"Income", "#009688"},
	}

	out := make([]CreateParams, 0, len(seed))
	for _, s := range seed {
		color := s.color
		out = append(out, CreateParams{Name: s.name, Color: &color})
	}
	return out
}
