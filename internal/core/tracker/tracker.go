// Package tracker implements the active-time state machine. Activation events
// arrive as discrete point-in-time notifications with no duration; the tracker
// reconstructs durations by bracketing consecutive activations, never counting
// active time twice and never dropping it silently when activation flips
// rapidly.
package tracker

import (
	"context"
	"time"

	"github.com/tabwatch/tabwatch/internal/core/timing"
	"github.com/tabwatch/tabwatch/internal/model"
)

// Tracker knows which single tab (if any) is currently active and since when.
// At most one tab is active at any instant.
type Tracker struct {
	timing *timing.Store

	active      bool
	activeID    model.TabID
	activeSince time.Time
}

func New(timing *timing.Store) *Tracker {
	return &Tracker{timing: timing}
}

// StartTracking closes out the previous active interval (if any) and opens a
// new one for id. Calling it for the tab that is already active is safe but
// re-bases activeSince to now; the sub-interval loss under rapid re-activation
// is a documented approximation, not a defect.
func (t *Tracker) StartTracking(ctx context.Context, id model.TabID, now time.Time) {
	t.closeInterval(ctx, now)

	t.active = true
	t.activeID = id
	t.activeSince = now

	if _, ok := t.timing.Get(id); !ok {
		t.timing.Upsert(ctx, id, model.TimingRecord{OpenedAt: now.UnixMilli()})
	}
}

// StopTracking closes out the in-progress interval and clears the active tab.
// Used when all windows lose focus and when the active tab is removed.
func (t *Tracker) StopTracking(ctx context.Context, now time.Time) {
	t.closeInterval(ctx, now)
	t.active = false
}

// FlushActive folds the in-progress interval into the stored total and
// re-bases activeSince to now, without changing which tab is active. The
// periodic safety flush uses this so a crash loses at most one flush interval
// of active time.
func (t *Tracker) FlushActive(ctx context.Context, now time.Time) {
	if !t.active {
		return
	}
	t.closeInterval(ctx, now)
	t.activeSince = now
}

// Active returns the currently active tab id and the instant it became
// active, if any.
func (t *Tracker) Active() (model.TabID, time.Time, bool) {
	if !t.active {
		return 0, time.Time{}, false
	}
	return t.activeID, t.activeSince, true
}

// CurrentSnapshot returns live totals for every tracked tab, with the active
// tab's entry augmented by the in-progress interval. Stored state is not
// mutated: two consecutive calls see the same baseline.
func (t *Tracker) CurrentSnapshot(now time.Time) model.TimingData {
	recs := t.timing.SnapshotAll()
	out := model.TimingData{TimingData: make(map[model.TabID]model.TabTiming, len(recs))}

	for id, rec := range recs {
		tt := model.TabTiming{OpenedAt: rec.OpenedAt, TotalActiveTime: rec.TotalActiveTime}
		if t.active && id == t.activeID {
			cur := now.Sub(t.activeSince).Milliseconds()
			if cur < 0 {
				cur = 0
			}
			tt.CurrentActiveTime = &cur
		}
		out.TimingData[id] = tt
	}
	if t.active {
		id := t.activeID
		out.ActiveTabID = &id
	}
	return out
}

// closeInterval adds the elapsed in-progress interval to the active tab's
// stored total. A tab never observed with timing gets its record created
// here, treating this as its first observation.
func (t *Tracker) closeInterval(ctx context.Context, now time.Time) {
	if !t.active {
		return
	}
	// Host timestamps arrive over separate requests with no ordering
	// guarantee; an out-of-order one must not run totals backwards.
	elapsed := now.Sub(t.activeSince).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	rec, ok := t.timing.Get(t.activeID)
	if !ok {
		rec = model.TimingRecord{OpenedAt: now.UnixMilli()}
	}
	rec.TotalActiveTime += elapsed
	t.timing.Upsert(ctx, t.activeID, rec)
}
