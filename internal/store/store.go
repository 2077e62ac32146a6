package store

import "context"

// Persisted snapshot keys. Each core store owns exactly one key and writes a
// full-map replacement on every mutation (simplicity over write amplification;
// the expected scale is tens of live tabs).
const (
	KeyTimingData     = "timingData"
	KeyTabInfo        = "tabInfo"
	KeyClosedTabs     = "closedTabs"
	KeyClosedTabsDate = "closedTabsDate"
)

// KV is the persistence primitive the accounting core writes through.
// Semantics are last-write-wins with no transactions across keys. While the
// process is alive the in-memory state is authoritative; implementations are
// best-effort storage consulted only at startup.
type KV interface {
	// GetAll returns the stored values for the requested keys. Keys with no
	// stored value are absent from the result; that is not an error.
	GetAll(ctx context.Context, keys []string) (map[string][]byte, error)
	// SetAll stores every entry, replacing prior values.
	SetAll(ctx context.Context, items map[string][]byte) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
