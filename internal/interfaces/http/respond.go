package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"nexus/internal/domain/account"
	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
	"nexus/internal/domain/notification"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
	"nexus/internal/shared/middleware"
)

const maxBodySize = 1 << 20 // 1 MiB

// Clock decides the calendar day used when a request omits asOf.
// config.ClockConfig satisfies it.
type Clock interface {
	Today(now time.Time) time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps domain sentinels onto HTTP statuses. Ownership failures
// look the same as missing rows.
var errorStatus = []struct {
	err    error
	status int
}{
	{account.ErrAccountNotFound, http.StatusNotFound},
	{account.ErrForbidden, http.StatusNotFound},
	{transaction.ErrTransactionNotFound, http.StatusNotFound},
	{recurring.ErrTemplateNotFound, http.StatusNotFound},
	{category.ErrCategoryNotFound, http.StatusNotFound},
	{bankmsg.ErrMessageNotFound, http.StatusNotFound},
	{notification.ErrDeviceTokenNotFound, http.StatusNotFound},

	{transaction.ErrDuplicateTransaction, http.StatusConflict},
	{bankmsg.ErrAlreadyConverted, http.StatusConflict},
	{category.ErrCategoryExists, http.StatusConflict},

	{account.ErrInvalidAccountType, http.StatusBadRequest},
	{account.ErrInvalidCurrency, http.StatusBadRequest},
	{account.ErrInvalidInput, http.StatusBadRequest},
	{account.ErrNothingToUpdate, http.StatusBadRequest},
	{account.ErrInvalidBalance, http.StatusBadRequest},
	{transaction.ErrInvalidAmount, http.StatusBadRequest},
	{transaction.ErrInvalidType, http.StatusBadRequest},
	{transaction.ErrInvalidInput, http.StatusBadRequest},
	{transaction.ErrUnknownCategory, http.StatusBadRequest},
	{recurring.ErrInvalidFrequency, http.StatusBadRequest},
	{recurring.ErrInvalidAmount, http.StatusBadRequest},
	{recurring.ErrInvalidInput, http.StatusBadRequest},
	{bankmsg.ErrEmptyMessage, http.StatusBadRequest},
	{bankmsg.ErrMessageTooLong, http.StatusBadRequest},
	{bankmsg.ErrNotConvertible, http.StatusBadRequest},
	{notification.ErrInvalidDeviceType, http.StatusBadRequest},
	{notification.ErrInvalidToken, http.StatusBadRequest},
	{notification.ErrTokenTooLong, http.StatusBadRequest},
	{notification.ErrInvalidKind, http.StatusBadRequest},
}

// writeServiceError answers with the status of a known domain error, or logs
// err and answers 500 with fallback
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.status, err.Error())
			return
		}
	}
	log.Printf("%s: %v", fallback, err)
	writeError(w, http.StatusInternalServerError, fallback)
}

// requireUser reads the authenticated user id or answers 401
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("Error decoding request body on %s: %v", r.URL.Path, err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// asOfParam reads ?asOf=, falling back to today on clock
func asOfParam(r *http.Request, clock Clock) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return clock.Today(time.Now()), nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return transaction.StartOfDay(t), nil
}

// intParam reads a positive integer query parameter, def when absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
