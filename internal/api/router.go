package api

import (
	"time"

	"github.com/gorilla/mux"

	"github.com/tabwatch/tabwatch/internal/api/recovery"
	coreRouter "github.com/tabwatch/tabwatch/internal/core/router"
)

// NewRouter creates the HTTP router exposing the event ingest endpoint and
// the presentation-layer query surface.
func NewRouter(core *coreRouter.Router, now func() time.Time) *mux.Router {
	if now == nil {
		now = time.Now
	}

	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	eventHandler := NewEventHandler(core, now)
	queryHandler := NewQueryHandler(core, now)
	healthHandler := NewHealthHandler()

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Host event ingest
	router.HandleFunc("/api/events", eventHandler.HandleEvent).Methods("POST")

	// Presentation-layer queries
	router.HandleFunc("/api/timing", queryHandler.GetTiming).Methods("GET")
	router.HandleFunc("/api/closed-tabs", queryHandler.GetClosedTabs).Methods("GET")
	router.HandleFunc("/api/closed-tabs/reopen", queryHandler.ReopenTab).Methods("POST")

	return router
}
