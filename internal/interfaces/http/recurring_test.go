package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
)

func TestRecurringHandler_RunNowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, 1, "acc-1", "1000")
	h := NewRecurringHandler(env.recurring, fixedClock(testToday))

	rr := call(t, h.HandleRecurring, http.MethodPost, "/api/recurring/", 1,
		`{"account_id":"acc-1","amount":"100","transaction_type":"expense","frequency":"monthly","next_run_date":"2026-03-01","description":"Hosting"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rr.Code, rr.Body.String())
	}
	var tmpl recurring.Template
	decodeBody(t, rr, &tmpl)

	rr = call(t, h.HandleRunNow, http.MethodPost, "/api/recurring/run-now?asOf=2026-03-10", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("run-now returned %d: %s", rr.Code, rr.Body.String())
	}
	var first RunNowResponse
	decodeBody(t, rr, &first)
	if first.AsOf != "2026-03-10" || first.Processed != 1 || first.Created != 1 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	rr = call(t, h.HandleRunNow, http.MethodPost, "/api/recurring/run-now?asOf=2026-03-10", 1, "")
	var second RunNowResponse
	decodeBody(t, rr, &second)
	if second.Processed != 0 || second.Created != 0 {
		t.Fatalf("second run on the same day fired again: %+v", second)
	}

	if got := env.balance(t, 1, "acc-1"); !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected balance 900, got %s", got)
	}

	rr = call(t, h.HandleRecurringByID, http.MethodGet, "/api/recurring/"+tmpl.ID, 1, "", "id", tmpl.ID)
	var advanced recurring.Template
	decodeBody(t, rr, &advanced)
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC); !advanced.NextRunDate.Equal(want) {
		t.Errorf("expected next run %s, got %s", want, advanced.NextRunDate)
	}

	txns, err := env.transactions.ListTransactions(t.Context(), 1, transaction.ListFilter{})
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != 1 || txns[0].Source != transaction.SourceRecurring {
		t.Fatalf("expected one recurring transaction, got %+v", txns)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !txns[0].Date.Equal(want) {
		t.Errorf("expected transaction dated %s, got %s", want, txns[0].Date)
	}
}

func TestRecurringHandler_RunNowDefaultsToClock(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, 1, "acc-1", "0")
	h := NewRecurringHandler(env.recurring, fixedClock(testToday))

	call(t, h.HandleRecurring, http.MethodPost, "/api/recurring/", 1,
		`{"account_id":"acc-1","amount":"10","transaction_type":"income","frequency":"weekly"}`)

	rr := call(t, h.HandleRunNow, http.MethodPost, "/api/recurring/run-now", 1, "")
	var resp RunNowResponse
	decodeBody(t, rr, &resp)
	if resp.AsOf != testToday.Format(time.DateOnly) {
		t.Errorf("expected asOf %s, got %s", testToday.Format(time.DateOnly), resp.AsOf)
	}
	if resp.Created != 1 {
		t.Errorf("expected a template starting today to fire, got %+v", resp)
	}
}

func TestHandleCreateRecurring_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Zero amount", `{"account_id":"acc-1","amount":"0","transaction_type":"expense","frequency":"monthly"}`, http.StatusBadRequest},
		{"Missing amount", `{"account_id":"acc-1","transaction_type":"expense","frequency":"monthly"}`, http.StatusBadRequest},
		{"Daily frequency", `{"account_id":"acc-1","amount":"5","transaction_type":"expense","frequency":"daily"}`, http.StatusBadRequest},
		{"Bad date", `{"account_id":"acc-1","amount":"5","transaction_type":"expense","frequency":"weekly","next_run_date":"tomorrow"}`, http.StatusBadRequest},
		{"Foreign account", `{"account_id":"acc-2","amount":"5","transaction_type":"expense","frequency":"weekly"}`, http.StatusNotFound},
		{"Valid", `{"account_id":"acc-1","amount":"5","transaction_type":"expense","frequency":"yearly"}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.createAccount(t, 1, "acc-1", "0")
			env.createAccount(t, 2, "acc-2", "0")
			h := NewRecurringHandler(env.recurring, fixedClock(testToday))

			rr := call(t, h.HandleRecurring, http.MethodPost, "/api/recurring/", 1, tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleUpcoming(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, 1, "acc-1", "0")
	h := NewRecurringHandler(env.recurring, fixedClock(testToday))

	rr := call(t, h.HandleRecurring, http.MethodPost, "/api/recurring/", 1,
		`{"account_id":"acc-1","amount":"10","transaction_type":"expense","frequency":"monthly","next_run_date":"2026-01-15"}`)
	var tmpl recurring.Template
	decodeBody(t, rr, &tmpl)

	rr = call(t, h.HandleUpcoming, http.MethodGet, "/api/recurring/"+tmpl.ID+"/upcoming?count=3", 1, "", "id", tmpl.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("upcoming returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp UpcomingResponse
	decodeBody(t, rr, &resp)

	want := []string{"2026-01-15", "2026-02-15", "2026-03-15"}
	if len(resp.Dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, resp.Dates)
	}
	for i := range want {
		if resp.Dates[i] != want[i] {
			t.Errorf("date %d: expected %s, got %s", i, want[i], resp.Dates[i])
		}
	}

	rr = call(t, h.HandleUpcoming, http.MethodGet, "/api/recurring/"+tmpl.ID+"/upcoming", 2, "", "id", tmpl.ID)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user, got %d", rr.Code)
	}
}

func TestHandleUpdateRecurring_Pause(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, 1, "acc-1", "0")
	h := NewRecurringHandler(env.recurring, fixedClock(testToday))

	rr := call(t, h.HandleRecurring, http.MethodPost, "/api/recurring/", 1,
		`{"account_id":"acc-1","amount":"10","transaction_type":"expense","frequency":"weekly","next_run_date":"2026-03-01"}`)
	var tmpl recurring.Template
	decodeBody(t, rr, &tmpl)

	rr = call(t, h.HandleRecurringByID, http.MethodPatch, "/api/recurring/"+tmpl.ID, 1, `{"is_active":false}`, "id", tmpl.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = call(t, h.HandleRunNow, http.MethodPost, "/api/recurring/run-now?asOf=2026-03-10", 1, "")
	var resp RunNowResponse
	decodeBody(t, rr, &resp)
	if resp.Processed != 0 {
		t.Errorf("paused template fired: %+v", resp)
	}

	rr = call(t, h.HandleRecurringByID, http.MethodDelete, "/api/recurring/"+tmpl.ID, 1, "", "id", tmpl.ID)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete returned %d", rr.Code)
	}
	rr = call(t, h.HandleRecurringByID, http.MethodGet, "/api/recurring/"+tmpl.ID, 1, "", "id", tmpl.ID)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rr.Code)
	}
}
