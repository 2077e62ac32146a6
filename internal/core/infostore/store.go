// Package infostore owns descriptive tab metadata: title, address, icon and
// last-updated time. Metadata has an independent lifecycle from timing and is
// copied into the archive record when a tab closes.
package infostore

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store"
)

// Store holds the authoritative in-memory metadata map.
type Store struct {
	kv    store.KV
	infos map[model.TabID]model.TabInfo
}

// Load initializes the store from the persisted snapshot, tolerating a
// missing or corrupt snapshot.
func Load(ctx context.Context, kv store.KV) *Store {
	s := &Store{kv: kv, infos: make(map[model.TabID]model.TabInfo)}

	vals, err := kv.GetAll(ctx, []string{store.KeyTabInfo})
	if err != nil {
		log.Warn().Err(err).Msg("tab info snapshot unavailable, starting empty")
		return s
	}
	if raw, ok := vals[store.KeyTabInfo]; ok {
		if err := json.Unmarshal(raw, &s.infos); err != nil {
			log.Warn().Err(err).Msg("tab info snapshot corrupt, starting empty")
			s.infos = make(map[model.TabID]model.TabInfo)
		}
	}
	return s
}

// RecordInfo captures metadata for a live tab and persists. Tabs on
// internal/non-web schemes (chrome://, about:, devtools, ...) are skipped.
func (s *Store) RecordInfo(ctx context.Context, info model.TabInfo) {
	if !isWebURL(info.URL) {
		return
	}
	s.infos[info.ID] = info
	s.persist(ctx)
}

// Get returns the last-known metadata for id, if any.
func (s *Store) Get(id model.TabID) (model.TabInfo, bool) {
	info, ok := s.infos[id]
	return info, ok
}

// Remove deletes the metadata for id, if present, and persists.
func (s *Store) Remove(ctx context.Context, id model.TabID) {
	if _, ok := s.infos[id]; !ok {
		return
	}
	delete(s.infos, id)
	s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.infos)
	if err != nil {
		log.Error().Err(err).Msg("marshal tab info snapshot")
		return
	}
	if err := s.kv.SetAll(ctx, map[string][]byte{store.KeyTabInfo: raw}); err != nil {
		log.Warn().Err(err).Msg("persist tab info snapshot failed, in-memory state remains authoritative")
	}
}

// isWebURL reports whether the address is an ordinary web page rather than a
// browser-internal surface.
func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
