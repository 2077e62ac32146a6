// Package storetest provides an in-memory store.KV for tests plus a small
// compliance suite real backends can run against.
package storetest

import (
	"context"
	"sync"

	"github.com/tabwatch/tabwatch/internal/store"
)

// MemoryKV is a thread-safe in-memory store.KV. Setting Err makes every
// write fail, which is how tests exercise the "persistence failures are
// logged, never surfaced" contract.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int

	// Err, when non-nil, is returned by SetAll (and Ping).
	Err error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) GetAll(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			cp := make([]byte, len(v))
			copy(cp, v)
			out[k] = cp
		}
	}
	return out, nil
}

func (m *MemoryKV) SetAll(_ context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for k, v := range items {
		cp := make([]byte, len(v))
		copy(cp, v)
		m.data[k] = cp
	}
	m.writes++
	return nil
}

func (m *MemoryKV) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *MemoryKV) Close() error { return nil }

// Writes reports how many SetAll calls succeeded.
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Get returns the stored value for a single key, for assertions.
func (m *MemoryKV) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

var _ store.KV = (*MemoryKV)(nil)
