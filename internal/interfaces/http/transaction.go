package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/transaction"
)

type TransactionHandler struct {
	transactionService *transaction.Service
}

func NewTransactionHandler(transactionService *transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

type CreateTransactionRequest struct {
	AccountID   string           `json:"account_id"`
	CategoryID  *int64           `json:"category_id"`
	Type        transaction.Type `json:"transaction_type"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"`
	Description *string          `json:"description"`
	Notes       *string          `json:"notes"`
}

// UpdateTransactionRequest is a partial patch. An explicit null category_id
// clears the category.
type UpdateTransactionRequest struct {
	AccountID   *string           `json:"account_id"`
	CategoryID  json.RawMessage   `json:"category_id"`
	Type        *transaction.Type `json:"transaction_type"`
	Amount      *decimal.Decimal  `json:"amount"`
	Date        *string           `json:"date"`
	Description *string           `json:"description"`
	Notes       *string           `json:"notes"`
}

// HandleTransactions serves GET and POST /api/transactions/
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleListTransactions(w, r, userID)
	case http.MethodPost:
		h.handleCreateTransaction(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *TransactionHandler) handleListTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := listFilterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.transactionService.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func listFilterFrom(r *http.Request) (transaction.ListFilter, error) {
	q := r.URL.Query()
	filter := transaction.ListFilter{AccountID: q.Get("account_id")}

	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errors.New("category_id must be an integer")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("start_date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &d
	}
	if raw := q.Get("end_date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &d
	}

	var err error
	if filter.Limit, err = intParam(r, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *TransactionHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	params := transaction.CreateParams{
		UserID:      userID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      *req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		Source:      transaction.SourceManual,
	}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.Date = transaction.StartOfDay(d)
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.transactionService.CreateTransaction(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "Failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleTransactionByID serves GET, PUT and DELETE /api/transactions/{id}
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.transactionService.GetTransaction(r.Context(), id, userID)
		if err != nil {
			writeServiceError(w, err, "Failed to get transaction")
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPut, http.MethodPatch:
		h.handleUpdateTransaction(w, r, userID, id)
	case http.MethodDelete:
		if err := h.transactionService.DeleteTransaction(r.Context(), id, userID); err != nil {
			writeServiceError(w, err, "Failed to delete transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *TransactionHandler) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID int64, id string) {
	var req UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := transaction.UpdateParams{
		AccountID:   req.AccountID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
	}
	if len(req.CategoryID) > 0 {
		if bytes.Equal(req.CategoryID, []byte("null")) {
			params.ClearCategory = true
		} else {
			var categoryID int64
			if err := json.Unmarshal(req.CategoryID, &categoryID); err != nil {
				writeError(w, http.StatusBadRequest, "category_id must be an integer or null")
				return
			}
			params.CategoryID = &categoryID
		}
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		d = transaction.StartOfDay(d)
		params.Date = &d
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.transactionService.UpdateTransaction(r.Context(), id, userID, params)
	if err != nil {
		writeServiceError(w, err, "Failed to update transaction")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
