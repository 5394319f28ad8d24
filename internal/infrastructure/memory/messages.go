package memory

import (
	"context"
	"sort"

	"nexus/internal/domain/bankmsg"
)

type MessageRepository struct {
	s *Store
}

func (r *MessageRepository) Create(ctx context.Context, msg *bankmsg.Message) (*bankmsg.Message, error) {
	var out bankmsg.Message
	err := r.s.do(ctx, func(st *state) error {
		st.nextMessageID++
		m := *msg
		m.ID = st.nextMessageID
		m.CreatedAt = r.s.timestamp()
		st.messages[m.ID] = &m
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64, userID int64) (*bankmsg.Message, error) {
	var out bankmsg.Message
	err := r.s.do(ctx, func(st *state) error {
		m, ok := st.messages[id]
		if !ok || m.UserID != userID {
			return bankmsg.ErrMessageNotFound
		}
		out = *m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MessageRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*bankmsg.Message, error) {
	var out []*bankmsg.Message
	err := r.s.do(ctx, func(st *state) error {
		for _, m := range st.messages {
			if m.UserID == userID {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *MessageRepository) LinkTransaction(ctx context.Context, id int64, transactionID string) (bool, error) {
	linked := false
	err := r.s.do(ctx, func(st *state) error {
		m, ok := st.messages[id]
		if !ok {
			return bankmsg.ErrMessageNotFound
		}
		if m.TransactionID != nil {
			return nil
		}
		txnID := transactionID
		m.TransactionID = &txnID
		linked = true
		return nil
	})
	return linked, err
}
