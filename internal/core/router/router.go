// Package router dispatches host lifecycle events to the accounting stores
// and answers queries from the presentation layer. The presentation layer
// never touches the stores directly.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tabwatch/tabwatch/internal/core/archive"
	"github.com/tabwatch/tabwatch/internal/core/infostore"
	"github.com/tabwatch/tabwatch/internal/core/timing"
	"github.com/tabwatch/tabwatch/internal/core/tracker"
	"github.com/tabwatch/tabwatch/internal/host"
	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store"
)

// Router is the single entry point for host events, timer callbacks, and
// presentation-layer queries. One mutex serializes all of them: exactly one
// handler runs at a time, so the multi-step state transitions inside
// startTracking, archive and friends are atomic with respect to each other.
// This is the Go rendition of the original's cooperative single-threaded
// scheduling.
type Router struct {
	mu sync.Mutex

	timing  *timing.Store
	info    *infostore.Store
	tracker *tracker.Tracker
	archive *archive.Archive
	bridge  host.Bridge

	// removeSeq and removed detect a tab removal that lands while a focus
	// query runs outside the lock, so the stale query result cannot
	// resurrect a timing record for a dead tab.
	removeSeq uint64
	removed   map[model.TabID]uint64
}

// New loads all stores from the persisted snapshot and wires the router.
func New(ctx context.Context, kv store.KV, bridge host.Bridge, maxClosedTabs int, now time.Time) *Router {
	ts := timing.Load(ctx, kv)
	is := infostore.Load(ctx, kv)
	tr := tracker.New(ts)
	ar := archive.Load(ctx, kv, ts, is, maxClosedTabs, now)
	return &Router{
		timing:  ts,
		info:    is,
		tracker: tr,
		archive: ar,
		bridge:  bridge,
		removed: make(map[model.TabID]uint64),
	}
}

// --- Host lifecycle events ---

// HandleTabCreated captures initial metadata for a new tab.
func (r *Router) HandleTabCreated(ctx context.Context, tab model.Tab, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.removed, tab.ID)
	r.info.RecordInfo(ctx, tabInfo(tab, now))
}

// HandleTabUpdated refreshes metadata when title/address/icon changed, and
// starts tracking when the active tab finishes loading (the host reports the
// navigation target only at that point).
func (r *Router) HandleTabUpdated(ctx context.Context, id model.TabID, changed []string, tab model.Tab, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if containsAny(changed, "title", "url", "favIconUrl") {
		r.info.RecordInfo(ctx, tabInfo(tab, now))
	}
	if tab.Active && contains(changed, "status") && tab.Status == "complete" {
		delete(r.removed, id)
		r.tracker.StartTracking(ctx, id, now)
	}
}

// HandleTabActivated switches the active-time interval to the newly focused
// tab.
func (r *Router) HandleTabActivated(ctx context.Context, id model.TabID, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.removed, id)
	r.tracker.StartTracking(ctx, id, now)
}

// HandleTabRemoved closes out the tab entirely: stop tracking if it was the
// active tab (folding the in-progress interval), archive it, then drop its
// timing and metadata.
func (r *Router) HandleTabRemoved(ctx context.Context, id model.TabID, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activeID, _, ok := r.tracker.Active(); ok && activeID == id {
		r.tracker.StopTracking(ctx, now)
	}
	r.archive.Archive(ctx, id, now)
	r.timing.Remove(ctx, id)
	r.info.Remove(ctx, id)

	r.removeSeq++
	r.removed[id] = r.removeSeq
}

// HandleWindowFocusChanged stops tracking when all browser windows lose
// focus, and on regained focus asks the host which tab is active in the
// focused window. A failed host query skips the activation; the next
// activation event recovers.
func (r *Router) HandleWindowFocusChanged(ctx context.Context, windowID int64, now time.Time) {
	if windowID == model.WindowIDNone {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.tracker.StopTracking(ctx, now)
		return
	}

	// Host query runs outside the lock; only the resulting state change is
	// serialized.
	r.mu.Lock()
	before := r.removeSeq
	r.mu.Unlock()

	tab, err := r.bridge.ActiveTab(ctx, windowID)
	if err != nil {
		log.Warn().Err(err).Int64("windowId", windowID).Msg("active-tab query failed, skipping focus activation")
		return
	}
	if tab == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed[tab.ID] > before {
		log.Debug().Int64("tabId", int64(tab.ID)).Msg("tab removed while focus query was in flight, skipping activation")
		return
	}
	r.tracker.StartTracking(ctx, tab.ID, now)
}

// --- Timer callbacks ---

// FlushActive is the periodic safety flush: it folds the in-progress active
// interval into the stored total so a crash loses at most one flush interval.
func (r *Router) FlushActive(ctx context.Context, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.FlushActive(ctx, now)
}

// CheckRollover runs the idempotent day-rollover check.
func (r *Router) CheckRollover(ctx context.Context, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archive.RolloverIfNewDay(ctx, now)
}

// StartTimers launches the periodic flush and rollover checks. Timers run for
// the lifetime of ctx; there is no flush on shutdown (up to one flush
// interval of active time may be lost — documented risk).
func (r *Router) StartTimers(ctx context.Context, flushEvery, rolloverEvery time.Duration) {
	go func() {
		flush := time.NewTicker(flushEvery)
		rollover := time.NewTicker(rolloverEvery)
		defer flush.Stop()
		defer rollover.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-flush.C:
				r.FlushActive(ctx, now)
			case now := <-rollover.C:
				r.CheckRollover(ctx, now)
			}
		}
	}()
}

// --- Presentation-layer queries ---

// GetTimingData returns live totals for every tracked tab, the active tab's
// entry augmented with its in-progress interval. Read-only: stored baselines
// are not mutated.
func (r *Router) GetTimingData(now time.Time) model.TimingData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.CurrentSnapshot(now)
}

// GetClosedTabs returns the closed-tab archive, newest first.
func (r *Router) GetClosedTabs() []model.ClosedTabRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archive.List()
}

// ReopenTab delegates tab creation to the host and reports the new id. No
// timing or metadata records are created here; they follow from the host's
// own creation event.
func (r *Router) ReopenTab(ctx context.Context, url, title string) (model.TabID, error) {
	if url == "" {
		return 0, NewValidationError("url", "url is required")
	}
	id, err := r.bridge.CreateTab(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Str("title", title).Msg("reopen tab rejected by host")
		return 0, err
	}
	log.Info().Int64("tabId", int64(id)).Str("url", url).Msg("reopened closed tab")
	return id, nil
}

func tabInfo(tab model.Tab, now time.Time) model.TabInfo {
	return model.TabInfo{
		ID:          tab.ID,
		Title:       tab.Title,
		URL:         tab.URL,
		FavIconURL:  tab.FavIconURL,
		LastUpdated: now.UnixMilli(),
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func containsAny(xs []string, wants ...string) bool {
	for _, w := range wants {
		if contains(xs, w) {
			return true
		}
	}
	return false
}
