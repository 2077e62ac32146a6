package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tabwatch/tabwatch/internal/api/respond"
	"github.com/tabwatch/tabwatch/internal/host"
	"github.com/tabwatch/tabwatch/internal/store"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// global health flag (1 = healthy, 0 = unhealthy)
var healthyFlag atomic.Int32

// lastProbeErr keeps the most recent dependency failure details.
var lastProbeErr atomic.Value // string

func init() {
	healthyFlag.Store(1)
	lastProbeErr.Store("")
}

// StartHealthMonitor launches a background goroutine that probes the
// persistence backend and the browser bridge every interval. The bridge being
// down degrades health but never stops event accounting.
func StartHealthMonitor(ctx context.Context, kv store.KV, bridge host.Bridge, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		probe := func() {
			var errs []string
			if err := kv.Ping(ctx); err != nil {
				errs = append(errs, fmt.Sprintf("store: %v", err))
			}
			if bridge != nil {
				if err := bridge.Ping(ctx); err != nil {
					errs = append(errs, fmt.Sprintf("bridge: %v", err))
				}
			}

			if len(errs) == 0 {
				healthyFlag.Store(1)
				lastProbeErr.Store("")
			} else {
				healthyFlag.Store(0)
				lastProbeErr.Store(strings.Join(errs, "; "))
			}
		}

		// initial probe immediately
		probe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe()
			}
		}
	}()
}

// CheckHealth handles GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if healthyFlag.Load() == 1 {
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "UP",
			"message":   "Service is healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	errMsg, _ := lastProbeErr.Load().(string)
	if errMsg == "" {
		errMsg = "One or more dependencies unavailable"
	}
	respond.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"status":    "DOWN",
		"message":   errMsg,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
