// Package timing owns per-tab accumulated totals. Records are mutated only by
// the active-time tracker; every mutation writes a full-map snapshot to the
// persistence primitive.
package timing

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store"
)

// Store holds the authoritative in-memory timing map. Persistence is a
// side effect applied after the in-memory state is already consistent; a
// failed write never rolls back state (the next write or periodic flush is
// the implicit retry).
type Store struct {
	kv   store.KV
	recs map[model.TabID]model.TimingRecord
}

// Load initializes the store from the persisted snapshot. A missing or
// unreadable snapshot yields an empty store: records lost across a restart
// are treated as first observations.
func Load(ctx context.Context, kv store.KV) *Store {
	s := &Store{kv: kv, recs: make(map[model.TabID]model.TimingRecord)}

	vals, err := kv.GetAll(ctx, []string{store.KeyTimingData})
	if err != nil {
		log.Warn().Err(err).Msg("timing snapshot unavailable, starting empty")
		return s
	}
	if raw, ok := vals[store.KeyTimingData]; ok {
		if err := json.Unmarshal(raw, &s.recs); err != nil {
			log.Warn().Err(err).Msg("timing snapshot corrupt, starting empty")
			s.recs = make(map[model.TabID]model.TimingRecord)
		}
	}
	return s
}

// Get returns the record for id, if any.
func (s *Store) Get(id model.TabID) (model.TimingRecord, bool) {
	rec, ok := s.recs[id]
	return rec, ok
}

// Upsert stores the record and persists the full map.
func (s *Store) Upsert(ctx context.Context, id model.TabID, rec model.TimingRecord) {
	s.recs[id] = rec
	s.persist(ctx)
}

// Remove deletes the record, if present, and persists the full map.
func (s *Store) Remove(ctx context.Context, id model.TabID) {
	if _, ok := s.recs[id]; !ok {
		return
	}
	delete(s.recs, id)
	s.persist(ctx)
}

// SnapshotAll returns a copy of every record. Callers may mutate the result
// freely without affecting stored state.
func (s *Store) SnapshotAll() map[model.TabID]model.TimingRecord {
	out := make(map[model.TabID]model.TimingRecord, len(s.recs))
	for id, rec := range s.recs {
		out[id] = rec
	}
	return out
}

func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.recs)
	if err != nil {
		log.Error().Err(err).Msg("marshal timing snapshot")
		return
	}
	if err := s.kv.SetAll(ctx, map[string][]byte{store.KeyTimingData: raw}); err != nil {
		log.Warn().Err(err).Msg("persist timing snapshot failed, in-memory state remains authoritative")
	}
}
