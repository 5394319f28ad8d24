package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
)

const recurringColumns = `id, user_id, account_id, category_id, amount, transaction_type, description,
	frequency, next_run_date, is_active, created_at, updated_at`

type RecurringRepository struct {
	db *DB
}

func NewRecurringRepository(db *DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func scanTemplate(row rowScanner) (*recurring.Template, error) {
	var t recurring.Template
	var categoryID sql.NullInt64
	var description sql.NullString

	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &categoryID, &t.Amount, &t.Type, &description,
		&t.Frequency, &t.NextRunDate, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CategoryID = int64Ptr(categoryID)
	t.Description = stringPtr(description)
	t.NextRunDate = t.NextRunDate.UTC()
	return &t, nil
}

func (r *RecurringRepository) Create(ctx context.Context, params recurring.CreateParams) (*recurring.Template, error) {
	query := `
		INSERT INTO recurring_transactions (id, user_id, account_id, category_id, amount, transaction_type,
		                                    description, frequency, next_run_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + recurringColumns

	t, err := scanTemplate(r.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.AccountID, nullInt64(params.CategoryID), params.Amount, params.Type,
		nullString(params.Description), params.Frequency, dateOnly(params.NextRunDate), params.IsActive,
	))
	if isMissingCategory(err) {
		return nil, transaction.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring template: %w", err)
	}
	return t, nil
}

func (r *RecurringRepository) GetByID(ctx context.Context, id string, userID int64) (*recurring.Template, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE id = $1 AND user_id = $2`

	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, recurring.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring template: %w", err)
	}
	return t, nil
}

func (r *RecurringRepository) ListByUserID(ctx context.Context, userID int64) ([]*recurring.Template, error) {
	return r.list(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_transactions
		WHERE user_id = $1
		ORDER BY next_run_date, id
	`, userID)
}

func (r *RecurringRepository) Update(ctx context.Context, t *recurring.Template) (*recurring.Template, error) {
	query := `
		UPDATE recurring_transactions
		SET account_id = $1,
		    category_id = $2,
		    amount = $3,
		    transaction_type = $4,
		    description = $5,
		    frequency = $6,
		    next_run_date = $7,
		    is_active = $8,
		    updated_at = NOW()
		WHERE id = $9 AND user_id = $10
		RETURNING ` + recurringColumns

	updated, err := scanTemplate(r.db.QueryRowContext(ctx, query,
		t.AccountID, nullInt64(t.CategoryID), t.Amount, t.Type, nullString(t.Description),
		t.Frequency, dateOnly(t.NextRunDate), t.IsActive, t.ID, t.UserID,
	))
	if err == sql.ErrNoRows {
		return nil, recurring.ErrTemplateNotFound
	}
	if isMissingCategory(err) {
		return nil, transaction.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update recurring template: %w", err)
	}
	return updated, nil
}

func (r *RecurringRepository) Delete(ctx context.Context, id string, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete recurring template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return recurring.ErrTemplateNotFound
	}
	return nil
}

func (r *RecurringRepository) ListDue(ctx context.Context, userID int64, asOf time.Time) ([]*recurring.Template, error) {
	return r.list(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_transactions
		WHERE user_id = $1 AND is_active AND next_run_date <= $2
		ORDER BY next_run_date, id
	`, userID, dateOnly(asOf))
}

func (r *RecurringRepository) ListUsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM recurring_transactions
		WHERE is_active AND next_run_date <= $1
		ORDER BY user_id
	`, dateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list users with due templates: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// Advance is a compare-and-set on next_run_date. A concurrent run that moved
// the date first leaves zero rows affected.
func (r *RecurringRepository) Advance(ctx context.Context, id string, from, to time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET next_run_date = $3, updated_at = NOW()
		WHERE id = $1 AND next_run_date = $2
	`, id, dateOnly(from), dateOnly(to))
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *RecurringRepository) list(ctx context.Context, query string, args ...any) ([]*recurring.Template, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	defer rows.Close()

	templates := []*recurring.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
