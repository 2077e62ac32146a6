package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tabwatch/tabwatch/internal/api/respond"
	"github.com/tabwatch/tabwatch/internal/core/router"
	"github.com/tabwatch/tabwatch/internal/host"
	"github.com/tabwatch/tabwatch/internal/model"
)

// QueryHandler serves the presentation layer's pull queries.
type QueryHandler struct {
	router *router.Router
	now    func() time.Time
}

func NewQueryHandler(r *router.Router, now func() time.Time) *QueryHandler {
	return &QueryHandler{router: r, now: now}
}

// GetTiming GET /api/timing
func (h *QueryHandler) GetTiming(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.router.GetTimingData(h.now()))
}

// GetClosedTabs GET /api/closed-tabs
func (h *QueryHandler) GetClosedTabs(w http.ResponseWriter, r *http.Request) {
	closed := h.router.GetClosedTabs()
	if closed == nil {
		closed = []model.ClosedTabRecord{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"closedTabs": closed})
}

// reopenResponse mirrors the contract with the presentation layer: host-call
// failures surface as {success:false, error}, never as a fatal fault.
type reopenResponse struct {
	Success  bool         `json:"success"`
	NewTabID *model.TabID `json:"newTabId,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// ReopenTab POST /api/closed-tabs/reopen
func (h *QueryHandler) ReopenTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	id, err := h.router.ReopenTab(r.Context(), req.URL, req.Title)
	if err != nil {
		if router.IsValidationError(err) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		var hostErr *host.Error
		status := http.StatusBadGateway
		msg := err.Error()
		if errors.As(err, &hostErr) {
			msg = hostErr.Message
		}
		respond.WriteJSON(w, status, reopenResponse{Success: false, Error: msg})
		return
	}
	respond.WriteJSON(w, http.StatusOK, reopenResponse{Success: true, NewTabID: &id})
}
