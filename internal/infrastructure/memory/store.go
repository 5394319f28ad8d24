// Package memory is a process-local store implementing every repository of the
// domain layer. It backs STORAGE_DRIVER=memory and the invariant tests.
package memory

import (
	"context"
	"sync"
	"time"

	"nexus/internal/domain/account"
	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
	"nexus/internal/domain/notification"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
)

type unitKey struct{}

// state is everything the store holds. Rows are stored by value behind
// pointers that never leave the package; callers always get copies.
type state struct {
	accounts      map[string]*account.Account
	transactions  map[string]*transaction.Transaction
	templates     map[string]*recurring.Template
	categories    map[int64]*category.Category
	messages      map[int64]*bankmsg.Message
	devices       map[string]*notification.DeviceToken
	notifications []*notification.Notification

	nextCategoryID     int64
	nextMessageID      int64
	nextDeviceID       int64
	nextNotificationID int64
}

func newState() *state {
	return &state{
		accounts:     make(map[string]*account.Account),
		transactions: make(map[string]*transaction.Transaction),
		templates:    make(map[string]*recurring.Template),
		categories:   make(map[int64]*category.Category),
		messages:     make(map[int64]*bankmsg.Message),
		devices:      make(map[string]*notification.DeviceToken),
	}
}

// checkCategory enforces the category_id foreign key of the SQL schema
func (st *state) checkCategory(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := st.categories[*id]; !ok {
		return transaction.ErrUnknownCategory
	}
	return nil
}

func (st *state) clone() *state {
	c := *st
	c.accounts = cloneMap(st.accounts)
	c.transactions = cloneMap(st.transactions)
	c.templates = cloneMap(st.templates)
	c.categories = cloneMap(st.categories)
	c.messages = cloneMap(st.messages)
	c.devices = cloneMap(st.devices)
	c.notifications = append([]*notification.Notification(nil), st.notifications...)
	return &c
}

func cloneMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

// Store serializes every operation behind one mutex. An atomic unit holds the
// mutex for its whole duration and restores a snapshot when it fails.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store seeded with the default categories
func New() *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, p := range category.Defaults() {
		s.st.insertCategory(p, s.now().UTC())
	}
	return s
}

// WithinTx implements transaction.Transactor. A ctx already inside a unit of
// this store joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inUnit(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, unitKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) inUnit(ctx context.Context) bool {
	owner, _ := ctx.Value(unitKey{}).(*Store)
	return owner == s
}

// do runs fn against the state, taking the lock unless ctx is already inside
// a unit that holds it
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inUnit(ctx) {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// Accounts returns the account repository view of the store
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Transactions returns the transaction repository view of the store
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }

// Recurring returns the recurring template repository view of the store
func (s *Store) Recurring() *RecurringRepository { return &RecurringRepository{s: s} }

// Categories returns the category repository view of the store
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Messages returns the banking message repository view of the store
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s: s} }

// Notifications returns the device and notification repository view of the store
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }
