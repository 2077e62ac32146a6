package model

import "github.com/google/uuid"

// TabID is the host browser's stable identifier for a live tab. It is unique
// only while the tab exists; the host may reuse ids after removal.
type TabID int64

// WindowIDNone is the host's sentinel for "no window has focus".
const WindowIDNone int64 = -1

// Tab is the host's view of a tab as carried by lifecycle events.
type Tab struct {
	ID         TabID  `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl"`
	WindowID   int64  `json:"windowId"`
	Active     bool   `json:"active"`
	Status     string `json:"status"`
}

// TabInfo is the descriptive metadata retained per live tab. Its lifecycle is
// independent from timing: it may be refreshed many times while the tab lives
// and is copied into the archive record at close.
type TabInfo struct {
	ID          TabID  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	FavIconURL  string `json:"favIconUrl"`
	LastUpdated int64  `json:"lastUpdated"`
}

// TimingRecord holds per-tab accumulated timing. OpenedAt is Unix
// milliseconds; TotalActiveTime is milliseconds accumulated up to the tab's
// most recent deactivation, never counting an in-progress interval.
type TimingRecord struct {
	OpenedAt        int64 `json:"openedAt"`
	TotalActiveTime int64 `json:"totalActiveTime"`
}

// TabTiming is the read-only projection returned by timing queries. The
// currently active tab's entry carries CurrentActiveTime on top of the stored
// baseline; stored state is never mutated by building this view.
type TabTiming struct {
	OpenedAt          int64  `json:"openedAt"`
	TotalActiveTime   int64  `json:"totalActiveTime"`
	CurrentActiveTime *int64 `json:"currentActiveTime,omitempty"`
}

// TimingData is the response shape for timing queries.
type TimingData struct {
	TimingData  map[TabID]TabTiming `json:"timingData"`
	ActiveTabID *TabID              `json:"activeTabId"`
}

// Placeholder values used when a tab closes before any metadata was captured.
const (
	PlaceholderTitle = "Untitled"
	PlaceholderURL   = "Unknown"
)

// ClosedTabRecord is the immutable archive entry for a closed tab.
// TotalTimeOpen = ClosedAt - OpenedAt. RecordID is server-assigned so the
// presentation layer has a stable key even when the host reuses tab ids.
type ClosedTabRecord struct {
	RecordID        uuid.UUID `json:"recordId"`
	ID              TabID     `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	FavIconURL      string    `json:"favIconUrl"`
	ClosedAt        int64     `json:"closedAt"`
	OpenedAt        int64     `json:"openedAt"`
	TotalActiveTime int64     `json:"totalActiveTime"`
	TotalTimeOpen   int64     `json:"totalTimeOpen"`
}
