package http

import (
	"net/http"

	"nexus/internal/domain/digest"
)

const (
	defaultDigestDays = 30
	maxDigestDays     = 366
)

type DashboardHandler struct {
	composer *digest.Composer
	clock    Clock
}

func NewDashboardHandler(composer *digest.Composer, clock Clock) *DashboardHandler {
	return &DashboardHandler{composer: composer, clock: clock}
}

// HandleFounderOverview serves GET /api/dashboard/founder-overview?asOf=
func (h *DashboardHandler) HandleFounderOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	asOf, err := asOfParam(r, h.clock)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := h.composer.FounderOverview(r.Context(), userID, asOf)
	if err != nil {
		writeServiceError(w, err, "Failed to build founder overview")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// HandleCashSummaryDigest serves GET /api/dashboard/cash-summary-digest?days=&asOf=
func (h *DashboardHandler) HandleCashSummaryDigest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	days, err := intParam(r, "days", defaultDigestDays)
	if err != nil || days == 0 || days > maxDigestDays {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
		return
	}
	asOf, err := asOfParam(r, h.clock)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.composer.CashSummary(r.Context(), userID, days, asOf)
	if err != nil {
		writeServiceError(w, err, "Failed to build cash summary digest")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
