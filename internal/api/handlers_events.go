package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tabwatch/tabwatch/internal/api/respond"
	"github.com/tabwatch/tabwatch/internal/core/router"
	"github.com/tabwatch/tabwatch/internal/model"
)

// Host event types accepted on the ingest endpoint.
const (
	EventTabCreated         = "tab-created"
	EventTabUpdated         = "tab-updated"
	EventTabActivated       = "tab-activated"
	EventTabRemoved         = "tab-removed"
	EventWindowFocusChanged = "window-focus-changed"
)

// eventEnvelope is the wire format the browser extension posts. Time is Unix
// milliseconds; when absent the event is stamped with server receipt time.
type eventEnvelope struct {
	Type     string       `json:"type"`
	Time     *int64       `json:"time,omitempty"`
	Tab      *model.Tab   `json:"tab,omitempty"`
	TabID    *model.TabID `json:"tabId,omitempty"`
	WindowID *int64       `json:"windowId,omitempty"`
	Changed  []string     `json:"changed,omitempty"`
}

// EventHandler ingests host lifecycle events.
type EventHandler struct {
	router *router.Router
	now    func() time.Time
}

func NewEventHandler(r *router.Router, now func() time.Time) *EventHandler {
	return &EventHandler{router: r, now: now}
}

// HandleEvent POST /api/events
func (h *EventHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var ev eventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	now := h.now()
	if ev.Time != nil {
		now = time.UnixMilli(*ev.Time)
	}

	ctx := r.Context()
	switch ev.Type {
	case EventTabCreated:
		if ev.Tab == nil {
			respond.WriteBadRequest(w, "tab-created requires tab")
			return
		}
		h.router.HandleTabCreated(ctx, *ev.Tab, now)
	case EventTabUpdated:
		if ev.Tab == nil || ev.TabID == nil {
			respond.WriteBadRequest(w, "tab-updated requires tabId and tab")
			return
		}
		h.router.HandleTabUpdated(ctx, *ev.TabID, ev.Changed, *ev.Tab, now)
	case EventTabActivated:
		if ev.TabID == nil {
			respond.WriteBadRequest(w, "tab-activated requires tabId")
			return
		}
		h.router.HandleTabActivated(ctx, *ev.TabID, now)
	case EventTabRemoved:
		if ev.TabID == nil {
			respond.WriteBadRequest(w, "tab-removed requires tabId")
			return
		}
		h.router.HandleTabRemoved(ctx, *ev.TabID, now)
	case EventWindowFocusChanged:
		if ev.WindowID == nil {
			respond.WriteBadRequest(w, "window-focus-changed requires windowId")
			return
		}
		h.router.HandleWindowFocusChanged(ctx, *ev.WindowID, now)
	default:
		respond.WriteBadRequest(w, "unknown event type: "+ev.Type)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
