package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
)

type RecurringHandler struct {
	recurringService *recurring.Service
	clock            Clock
}

func NewRecurringHandler(recurringService *recurring.Service, clock Clock) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, clock: clock}
}

type CreateRecurringRequest struct {
	AccountID   string              `json:"account_id"`
	CategoryID  *int64              `json:"category_id"`
	Amount      *decimal.Decimal    `json:"amount"`
	Type        transaction.Type    `json:"transaction_type"`
	Description *string             `json:"description"`
	Frequency   recurring.Frequency `json:"frequency"`
	NextRunDate string              `json:"next_run_date"`
	IsActive    *bool               `json:"is_active"`
}

type UpdateRecurringRequest struct {
	AccountID   *string              `json:"account_id"`
	CategoryID  json.RawMessage      `json:"category_id"`
	Amount      *decimal.Decimal     `json:"amount"`
	Type        *transaction.Type    `json:"transaction_type"`
	Description *string              `json:"description"`
	Frequency   *recurring.Frequency `json:"frequency"`
	NextRunDate *string              `json:"next_run_date"`
	IsActive    *bool                `json:"is_active"`
}

type UpcomingResponse struct {
	ID    string   `json:"id"`
	Dates []string `json:"dates"`
}

type RunNowResponse struct {
	AsOf string `json:"as_of"`
	*recurring.RunResult
}

// HandleRecurring serves GET and POST /api/recurring/
func (h *RecurringHandler) HandleRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		templates, err := h.recurringService.ListTemplates(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err, "Failed to list recurring transactions")
			return
		}
		if templates == nil {
			templates = []*recurring.Template{}
		}
		writeJSON(w, http.StatusOK, templates)
	case http.MethodPost:
		h.handleCreate(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *RecurringHandler) handleCreate(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateRecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := recurring.CreateParams{
		UserID:      userID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Description: req.Description,
		Frequency:   req.Frequency,
		IsActive:    true,
	}
	if req.Amount != nil {
		params.Amount = *req.Amount
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	if req.NextRunDate == "" {
		params.NextRunDate = h.clock.Today(time.Now())
	} else {
		d, err := parseDate(req.NextRunDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.NextRunDate = transaction.StartOfDay(d)
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.recurringService.CreateTemplate(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "Failed to create recurring transaction")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleRecurringByID serves GET, PATCH and DELETE /api/recurring/{id}
func (h *RecurringHandler) HandleRecurringByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		t, err := h.recurringService.GetTemplate(r.Context(), id, userID)
		if err != nil {
			writeServiceError(w, err, "Failed to get recurring transaction")
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPatch, http.MethodPut:
		h.handleUpdate(w, r, userID, id)
	case http.MethodDelete:
		if err := h.recurringService.DeleteTemplate(r.Context(), id, userID); err != nil {
			writeServiceError(w, err, "Failed to delete recurring transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *RecurringHandler) handleUpdate(w http.ResponseWriter, r *http.Request, userID int64, id string) {
	var req UpdateRecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := recurring.UpdateParams{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Frequency:   req.Frequency,
		IsActive:    req.IsActive,
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
	if req.NextRunDate != nil {
		d, err := parseDate(*req.NextRunDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.NextRunDate = &d
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.recurringService.UpdateTemplate(r.Context(), id, userID, params)
	if err != nil {
		writeServiceError(w, err, "Failed to update recurring transaction")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleUpcoming serves GET /api/recurring/{id}/upcoming?count=n
func (h *RecurringHandler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count, err := intParam(r, "count", recurring.DefaultUpcomingCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	dates, err := h.recurringService.UpcomingRuns(r.Context(), id, userID, count)
	if err != nil {
		writeServiceError(w, err, "Failed to compute upcoming runs")
		return
	}

	resp := UpcomingResponse{ID: id, Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(time.DateOnly))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRunNow serves POST /api/recurring/run-now?asOf=YYYY-MM-DD
func (h *RecurringHandler) HandleRunNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	asOf, err := asOfParam(r, h.clock)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.recurringService.RunDue(r.Context(), userID, asOf)
	if err != nil {
		writeServiceError(w, err, "Failed to run recurring transactions")
		return
	}
	writeJSON(w, http.StatusOK, RunNowResponse{AsOf: asOf.Format(time.DateOnly), RunResult: result})
}
