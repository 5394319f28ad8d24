package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"nexus/internal/domain/account"
)

type AccountHandler struct {
	accountService *account.Service
}

func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type CreateAccountRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AccountType string          `json:"account_type"`
	Currency    string          `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	Description *string         `json:"description"`
}

// HandleAccounts serves GET and POST /api/accounts/
func (h *AccountHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		accounts, err := h.accountService.ListAccountsByUserID(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err, "Failed to list accounts")
			return
		}
		if accounts == nil {
			accounts = []*account.Account{}
		}
		writeJSON(w, http.StatusOK, accounts)
	case http.MethodPost:
		h.handleCreateAccount(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *AccountHandler) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := account.CreateParams{
		ID:          req.ID,
		UserID:      userID,
		Name:        req.Name,
		AccountType: req.AccountType,
		Currency:    req.Currency,
		Balance:     req.Balance,
		Description: req.Description,
	}
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	if params.Currency == "" {
		params.Currency = account.DefaultCurrency
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "Failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// UpdateAccountRequest patches name, description or is_active
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// HandleAccountByID serves GET, PATCH and DELETE /api/accounts/{id}
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		acc, err := h.accountService.GetAccount(r.Context(), accountID, userID)
		if err != nil {
			writeServiceError(w, err, "Failed to get account")
			return
		}
		writeJSON(w, http.StatusOK, acc)
	case http.MethodPatch:
		var req UpdateAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		params := account.UpdateParams{Name: req.Name, Description: req.Description, IsActive: req.IsActive}
		if err := params.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		acc, err := h.accountService.UpdateAccount(r.Context(), accountID, userID, params)
		if err != nil {
			writeServiceError(w, err, "Failed to update account")
			return
		}
		writeJSON(w, http.StatusOK, acc)
	case http.MethodDelete:
		if err := h.accountService.DeleteAccount(r.Context(), accountID, userID); err != nil {
			writeServiceError(w, err, "Failed to delete account")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
