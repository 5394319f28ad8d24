package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/transaction"
)

const messageColumns = `id, user_id, raw_text, source, parsed_amount, parsed_date, parsed_description,
	parsed_type, suggested_category_id, transaction_id, created_at`

type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row rowScanner) (*bankmsg.Message, error) {
	var m bankmsg.Message
	var amount decimal.NullDecimal
	var date sql.NullTime
	var description, parsedType, transactionID sql.NullString
	var categoryID sql.NullInt64

	err := row.Scan(
		&m.ID, &m.UserID, &m.RawText, &m.Source, &amount, &date, &description,
		&parsedType, &categoryID, &transactionID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if amount.Valid {
		m.ParsedAmount = &amount.Decimal
	}
	if date.Valid {
		d := date.Time.UTC()
		m.ParsedDate = &d
	}
	if parsedType.Valid {
		t := transaction.Type(parsedType.String)
		m.ParsedType = &t
	}
	m.ParsedDescription = stringPtr(description)
	m.SuggestedCategoryID = int64Ptr(categoryID)
	m.TransactionID = stringPtr(transactionID)
	return &m, nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *bankmsg.Message) (*bankmsg.Message, error) {
	var amount decimal.NullDecimal
	if msg.ParsedAmount != nil {
		amount = decimal.NullDecimal{Decimal: *msg.ParsedAmount, Valid: true}
	}
	var date sql.NullString
	if msg.ParsedDate != nil {
		date = sql.NullString{String: dateOnly(*msg.ParsedDate), Valid: true}
	}
	var parsedType sql.NullString
	if msg.ParsedType != nil {
		parsedType = sql.NullString{String: string(*msg.ParsedType), Valid: true}
	}

	query := `
		INSERT INTO banking_messages (user_id, raw_text, source, parsed_amount, parsed_date,
		                              parsed_description, parsed_type, suggested_category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + messageColumns

	m, err := scanMessage(r.db.QueryRowContext(ctx, query,
		msg.UserID, msg.RawText, msg.Source, amount, date,
		nullString(msg.ParsedDescription), parsedType, nullInt64(msg.SuggestedCategoryID),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create banking message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64, userID int64) (*bankmsg.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM banking_messages WHERE id = $1 AND user_id = $2`

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, bankmsg.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get banking message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*bankmsg.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM banking_messages
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list banking messages: %w", err)
	}
	defer rows.Close()

	messages := []*bankmsg.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banking message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// LinkTransaction only writes an unlinked message
func (r *MessageRepository) LinkTransaction(ctx context.Context, id int64, transactionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE banking_messages SET transaction_id = $1 WHERE id = $2 AND transaction_id IS NULL`,
		transactionID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to link banking message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 1 {
		return true, nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM banking_messages WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check banking message: %w", err)
	}
	if !exists {
		return false, bankmsg.ErrMessageNotFound
	}
	return false, nil
}
