package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
)

type RecurringRepository struct {
	s *Store
}

func (r *RecurringRepository) Create(ctx context.Context, params recurring.CreateParams) (*recurring.Template, error) {
	var out recurring.Template
	err := r.s.do(ctx, func(st *state) error {
		if _, exists := st.templates[params.ID]; exists {
			return fmt.Errorf("failed to create recurring template: id %s already exists", params.ID)
		}
		if err := st.checkCategory(params.CategoryID); err != nil {
			return err
		}
		now := r.s.timestamp()
		t := &recurring.Template{
			ID:          params.ID,
			UserID:      params.UserID,
			AccountID:   params.AccountID,
			CategoryID:  params.CategoryID,
			Amount:      params.Amount,
			Type:        params.Type,
			Description: params.Description,
			Frequency:   params.Frequency,
			NextRunDate: transaction.StartOfDay(params.NextRunDate),
			IsActive:    params.IsActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		st.templates[t.ID] = t
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecurringRepository) GetByID(ctx context.Context, id string, userID int64) (*recurring.Template, error) {
	var out recurring.Template
	err := r.s.do(ctx, func(st *state) error {
		t, ok := st.templates[id]
		if !ok || t.UserID != userID {
			return recurring.ErrTemplateNotFound
		}
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecurringRepository) ListByUserID(ctx context.Context, userID int64) ([]*recurring.Template, error) {
	return r.collect(ctx, func(t *recurring.Template) bool { return t.UserID == userID })
}

func (r *RecurringRepository) Update(ctx context.Context, t *recurring.Template) (*recurring.Template, error) {
	var out recurring.Template
	err := r.s.do(ctx, func(st *state) error {
		current, ok := st.templates[t.ID]
		if !ok || current.UserID != t.UserID {
			return recurring.ErrTemplateNotFound
		}
		if err := st.checkCategory(t.CategoryID); err != nil {
			return err
		}
		next := *t
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = r.s.timestamp()
		st.templates[t.ID] = &next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RecurringRepository) Delete(ctx context.Context, id string, userID int64) error {
	return r.s.do(ctx, func(st *state) error {
		t, ok := st.templates[id]
		if !ok || t.UserID != userID {
			return recurring.ErrTemplateNotFound
		}
		delete(st.templates, id)
		return nil
	})
}

func (r *RecurringRepository) ListDue(ctx context.Context, userID int64, asOf time.Time) ([]*recurring.Template, error) {
	return r.collect(ctx, func(t *recurring.Template) bool {
		return t.UserID == userID && due(t, asOf)
	})
}

func (r *RecurringRepository) ListUsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error) {
	seen := make(map[int64]struct{})
	var users []int64
	err := r.s.do(ctx, func(st *state) error {
		for _, t := range st.templates {
			if _, ok := seen[t.UserID]; ok || !due(t, asOf) {
				continue
			}
			seen[t.UserID] = struct{}{}
			users = append(users, t.UserID)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, err
}

// Advance is a compare-and-set on the next run date
func (r *RecurringRepository) Advance(ctx context.Context, id string, from, to time.Time) (bool, error) {
	advanced := false
	err := r.s.do(ctx, func(st *state) error {
		t, ok := st.templates[id]
		if !ok {
			return recurring.ErrTemplateNotFound
		}
		if !t.NextRunDate.Equal(from) {
			return nil
		}
		t.NextRunDate = to
		t.UpdatedAt = r.s.timestamp()
		advanced = true
		return nil
	})
	return advanced, err
}

func due(t *recurring.Template, asOf time.Time) bool {
	return t.IsActive && !t.NextRunDate.After(asOf)
}

// collect returns copies of the matching templates ordered by next run date
func (r *RecurringRepository) collect(ctx context.Context, keep func(*recurring.Template) bool) ([]*recurring.Template, error) {
	var out []*recurring.Template
	err := r.s.do(ctx, func(st *state) error {
		for _, t := range st.templates {
			if keep(t) {
				cp := *t
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextRunDate.Equal(out[j].NextRunDate) {
			return out[i].NextRunDate.Before(out[j].NextRunDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}
