// Package archive keeps the bounded, day-scoped history of closed tabs. The
// archive clears when the calendar day changes; this is a coarse daily
// rollover, not a sliding 24h window.
package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tabwatch/tabwatch/internal/core/infostore"
	"github.com/tabwatch/tabwatch/internal/core/timing"
	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store"
)

const dayLayout = "2006-01-02"

// Archive owns closed-tab history. Records are immutable once created,
// ordered newest-first, and capped at limit (oldest dropped).
type Archive struct {
	kv     store.KV
	timing *timing.Store
	info   *infostore.Store
	limit  int

	records []model.ClosedTabRecord
	day     string
}

// Load initializes the archive from the persisted snapshot and establishes
// the day marker. A marker is always present after Load: absent or corrupt
// snapshots start an empty archive scoped to now's calendar day.
func Load(ctx context.Context, kv store.KV, ts *timing.Store, is *infostore.Store, limit int, now time.Time) *Archive {
	a := &Archive{kv: kv, timing: ts, info: is, limit: limit}

	vals, err := kv.GetAll(ctx, []string{store.KeyClosedTabs, store.KeyClosedTabsDate})
	if err != nil {
		log.Warn().Err(err).Msg("closed-tab snapshot unavailable, starting empty")
		a.day = now.Format(dayLayout)
		return a
	}
	if raw, ok := vals[store.KeyClosedTabs]; ok {
		if err := json.Unmarshal(raw, &a.records); err != nil {
			log.Warn().Err(err).Msg("closed-tab snapshot corrupt, starting empty")
			a.records = nil
		}
	}
	if raw, ok := vals[store.KeyClosedTabsDate]; ok {
		_ = json.Unmarshal(raw, &a.day)
	}
	if a.day == "" {
		a.day = now.Format(dayLayout)
	}

	// The process may have been down across midnight.
	a.RolloverIfNewDay(ctx, now)
	return a
}

// Archive records the closure of id. It is a no-op when the tab was never
// observed with timing. Callers must fold any in-progress
// active interval into the timing store before calling; the router does this
// by stopping tracking first.
func (a *Archive) Archive(ctx context.Context, id model.TabID, now time.Time) {
	rec, ok := a.timing.Get(id)
	if !ok {
		return
	}

	closed := model.ClosedTabRecord{
		RecordID:        uuid.New(),
		ID:              id,
		Title:           model.PlaceholderTitle,
		URL:             model.PlaceholderURL,
		ClosedAt:        now.UnixMilli(),
		OpenedAt:        rec.OpenedAt,
		TotalActiveTime: rec.TotalActiveTime,
		TotalTimeOpen:   now.UnixMilli() - rec.OpenedAt,
	}
	if info, ok := a.info.Get(id); ok {
		closed.Title = info.Title
		closed.URL = info.URL
		closed.FavIconURL = info.FavIconURL
	}

	a.records = append([]model.ClosedTabRecord{closed}, a.records...)
	if len(a.records) > a.limit {
		a.records = a.records[:a.limit]
	}
	a.persist(ctx)
}

// RolloverIfNewDay clears the archive when the stored day marker no longer
// matches now's calendar day. Idempotent: a second check within the same day
// does nothing.
func (a *Archive) RolloverIfNewDay(ctx context.Context, now time.Time) {
	marker := now.Format(dayLayout)
	if a.day == marker {
		return
	}
	log.Info().Str("from", a.day).Str("to", marker).Int("dropped", len(a.records)).Msg("closed-tab archive day rollover")
	a.records = nil
	a.day = marker
	a.persist(ctx)
}

// List returns the archive newest-first. The result is a copy; records are
// immutable once created.
func (a *Archive) List() []model.ClosedTabRecord {
	out := make([]model.ClosedTabRecord, len(a.records))
	copy(out, a.records)
	return out
}

func (a *Archive) persist(ctx context.Context) {
	recs, err := json.Marshal(a.records)
	if err != nil {
		log.Error().Err(err).Msg("marshal closed-tab snapshot")
		return
	}
	day, _ := json.Marshal(a.day)
	items := map[string][]byte{
		store.KeyClosedTabs:     recs,
		store.KeyClosedTabsDate: day,
	}
	if err := a.kv.SetAll(ctx, items); err != nil {
		log.Warn().Err(err).Msg("persist closed-tab snapshot failed, in-memory state remains authoritative")
	}
}
