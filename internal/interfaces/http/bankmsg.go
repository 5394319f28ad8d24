package http

import (
	"net/http"
	"strconv"

	"nexus/internal/domain/bankmsg"
)

type BankMessageHandler struct {
	messageService *bankmsg.Service
}

func NewBankMessageHandler(messageService *bankmsg.Service) *BankMessageHandler {
	return &BankMessageHandler{messageService: messageService}
}

type ParseMessageRequest struct {
	RawText string `json:"raw_text"`
}

type CreateMessageRequest struct {
	RawText string `json:"raw_text"`
	Source  string `json:"source"`
}

type ConvertMessageRequest struct {
	AccountID  string `json:"account_id"`
	CategoryID *int64 `json:"category_id"`
}

// HandleParse serves POST /api/banking-messages/parse. Nothing is stored.
func (h *BankMessageHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ParseMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.messageService.Preview(r.Context(), req.RawText)
	if err != nil {
		writeServiceError(w, err, "Failed to parse banking message")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMessages serves GET and POST /api/banking-messages/
func (h *BankMessageHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit, err := intParam(r, "limit", bankmsg.DefaultListLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		messages, err := h.messageService.ListMessages(r.Context(), userID, limit)
		if err != nil {
			writeServiceError(w, err, "Failed to list banking messages")
			return
		}
		if messages == nil {
			messages = []*bankmsg.Message{}
		}
		writeJSON(w, http.StatusOK, messages)
	case http.MethodPost:
		var req CreateMessageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		params := bankmsg.CreateParams{UserID: userID, RawText: req.RawText, Source: req.Source}
		if err := params.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		msg, err := h.messageService.Ingest(r.Context(), params)
		if err != nil {
			writeServiceError(w, err, "Failed to store banking message")
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleMessageByID serves GET /api/banking-messages/{id}
func (h *BankMessageHandler) HandleMessageByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := messageID(w, r)
	if !ok {
		return
	}

	msg, err := h.messageService.GetMessage(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "Failed to get banking message")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// HandleConvert serves POST /api/banking-messages/{id}/create-transaction
func (h *BankMessageHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := messageID(w, r)
	if !ok {
		return
	}

	var req ConvertMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	created, err := h.messageService.Convert(r.Context(), id, userID, bankmsg.ConvertParams{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to convert banking message")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid message ID")
		return 0, false
	}
	return id, true
}
