package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nexus/internal/domain/transaction"
)

const transactionColumns = `id, user_id, account_id, category_id, transaction_type, amount, transaction_date,
	description, notes, source, created_at, updated_at`

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// dateOnly formats t for a DATE column
func dateOnly(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var categoryID sql.NullInt64
	var description, notes sql.NullString

	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &categoryID, &t.Type, &t.Amount, &t.Date,
		&description, &notes, &t.Source, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CategoryID = int64Ptr(categoryID)
	t.Description = stringPtr(description)
	t.Notes = stringPtr(notes)
	t.Date = t.Date.UTC()
	return &t, nil
}

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	source := params.Source
	if source == "" {
		source = transaction.SourceManual
	}

	query := `
		INSERT INTO transactions (id, user_id, account_id, category_id, transaction_type, amount,
		                          transaction_date, description, notes, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transactionColumns

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.AccountID, nullInt64(params.CategoryID), params.Type,
		params.Amount, dateOnly(params.Date), nullString(params.Description), nullString(params.Notes), source,
	))
	if isMissingCategory(err) {
		return nil, transaction.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string, userID int64) (*transaction.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, id string, userID int64) (*transaction.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
}

func (r *TransactionRepository) get(ctx context.Context, query string, args ...any) (*transaction.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// List orders by date, newest first, then by creation time
func (r *TransactionRepository) List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	where, args := listConditions(userID, filter)

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY transaction_date DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*transaction.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// listConditions builds the WHERE clause of List with its positional args
func listConditions(userID int64, f transaction.ListFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AccountID != "" {
		add("account_id = $%d", f.AccountID)
	}
	if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}
	if f.StartDate != nil {
		add("transaction_date >= $%d", dateOnly(*f.StartDate))
	}
	if f.EndDate != nil {
		add("transaction_date <= $%d", dateOnly(*f.EndDate))
	}
	return strings.Join(conds, " AND "), args
}

// Update persists every mutable field. Owner, source and creation time never change.
func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET account_id = $1,
		    category_id = $2,
		    transaction_type = $3,
		    amount = $4,
		    transaction_date = $5,
		    description = $6,
		    notes = $7,
		    updated_at = NOW()
		WHERE id = $8
		RETURNING ` + transactionColumns

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query,
		txn.AccountID, nullInt64(txn.CategoryID), txn.Type, txn.Amount, dateOnly(txn.Date),
		nullString(txn.Description), nullString(txn.Notes), txn.ID,
	))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if isMissingCategory(err) {
		return nil, transaction.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) FindDuplicates(ctx context.Context, c transaction.DuplicateCriteria) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		  AND account_id = $2
		  AND transaction_type = $3
		  AND amount = $4
		  AND LOWER(TRIM(COALESCE(description, ''))) = LOWER($5)
		  AND transaction_date >= $6
		  AND transaction_date < $7
	`

	rows, err := r.db.QueryContext(ctx, query,
		c.UserID, c.AccountID, c.Type, c.Amount, strings.TrimSpace(c.Description),
		dateOnly(c.DateLowerBound), dateOnly(c.DateUpperBound),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate transactions: %w", err)
	}
	defer rows.Close()

	var duplicates []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		duplicates = append(duplicates, t)
	}
	return duplicates, rows.Err()
}
