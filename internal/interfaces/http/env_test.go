package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
	"nexus/internal/domain/digest"
	"nexus/internal/domain/metrics"
	"nexus/internal/domain/notification"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
	"nexus/internal/infrastructure/memory"
)

type fixedClock time.Time

func (c fixedClock) Today(time.Time) time.Time { return time.Time(c) }

var testToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

// testEnv wires every service over one in-memory store
type testEnv struct {
	store         *memory.Store
	accounts      *account.Service
	transactions  *transaction.Service
	recurring     *recurring.Service
	categories    *category.Service
	messages      *bankmsg.Service
	notifications *notification.Service
	composer      *digest.Composer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()

	accounts := account.NewService(store.Accounts())
	transactions := transaction.NewService(store.Transactions(), store.Accounts(), store)
	categories := category.NewService(store.Categories())
	return &testEnv{
		store:         store,
		accounts:      accounts,
		transactions:  transactions,
		recurring:     recurring.NewService(store.Recurring(), accounts, transactions, store),
		categories:    categories,
		messages:      bankmsg.NewService(store.Messages(), categories, transactions, store),
		notifications: notification.NewService(store.Notifications(), nil),
		composer:      digest.NewComposer(metrics.NewEngine(store)),
	}
}

func (e *testEnv) createAccount(t *testing.T, userID int64, id, balance string) *account.Account {
	t.Helper()
	acc, err := e.accounts.CreateAccount(context.Background(), account.CreateParams{
		ID:          id,
		UserID:      userID,
		Name:        "Account " + id,
		AccountType: "checking",
		Currency:    "USD",
		Balance:     decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return acc
}

func (e *testEnv) balance(t *testing.T, userID int64, id string) decimal.Decimal {
	t.Helper()
	acc, err := e.accounts.GetAccount(context.Background(), id, userID)
	if err != nil {
		t.Fatalf("failed to load account %s: %v", id, err)
	}
	return acc.Balance
}

// call runs handler on a request authenticated as userID. pathValues are
// name, value pairs.
func call(t *testing.T, handler http.HandlerFunc, method, target string, userID int64, body string, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := withUser(httptest.NewRequest(method, target, r), userID)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}
