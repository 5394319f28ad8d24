package http

import (
	"net/http"

	"nexus/internal/domain/notification"
)

type NotificationHandler struct {
	notificationService *notification.Service
}

func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// HandleDevices serves POST /api/notifications/devices/
func (h *NotificationHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req RegisterDeviceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		params := notification.RegisterDeviceParams{UserID: userID, Token: req.Token, DeviceType: req.DeviceType}
		if err := params.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		device, err := h.notificationService.RegisterDevice(r.Context(), params)
		if err != nil {
			writeServiceError(w, err, "Failed to register device")
			return
		}
		writeJSON(w, http.StatusCreated, device)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleNotifications serves GET /api/notifications/?kind=digest&limit=20
func (h *NotificationHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.notificationService.History(r.Context(), notification.HistoryFilter{
		UserID: userID,
		Kind:   r.URL.Query().Get("kind"),
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to list notifications")
		return
	}
	if history == nil {
		history = []*notification.Notification{}
	}
	writeJSON(w, http.StatusOK, history)
}
