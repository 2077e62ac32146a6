package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreRouter "github.com/tabwatch/tabwatch/internal/core/router"
	"github.com/tabwatch/tabwatch/internal/host"
	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store/storetest"
)

type stubBridge struct {
	createdID model.TabID
	createErr error
}

func (s *stubBridge) ActiveTab(context.Context, int64) (*model.Tab, error) { return nil, nil }

func (s *stubBridge) CreateTab(context.Context, string) (model.TabID, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	return s.createdID, nil
}

func (s *stubBridge) Ping(context.Context) error { return nil }

// testServer wires a full stack (memory kv, stub bridge, core router, HTTP
// router) with a controllable clock.
func testServer(t *testing.T, bridge host.Bridge) (*httptest.Server, *time.Time) {
	t.Helper()
	if bridge == nil {
		bridge = &stubBridge{}
	}
	now := time.UnixMilli(0)
	core := coreRouter.New(context.Background(), storetest.NewMemoryKV(), bridge, 100, now)
	srv := httptest.NewServer(NewRouter(core, func() time.Time { return now }))
	t.Cleanup(srv.Close)
	return srv, &now
}

func postEvent(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/events", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestEventIngestAndTimingQuery(t *testing.T) {
	srv, now := testServer(t, nil)

	resp := postEvent(t, srv, `{"type":"tab-created","time":0,"tab":{"id":1,"title":"One","url":"https://one.test","windowId":1,"active":true,"status":"complete"}}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	postEvent(t, srv, `{"type":"tab-activated","time":3000,"tabId":1}`)

	*now = time.UnixMilli(7000)
	resp2, err := http.Get(srv.URL + "/api/timing")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var td model.TimingData
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&td))
	require.NotNil(t, td.ActiveTabID)
	assert.Equal(t, model.TabID(1), *td.ActiveTabID)
	entry := td.TimingData[1]
	require.NotNil(t, entry.CurrentActiveTime)
	assert.Equal(t, int64(4000), *entry.CurrentActiveTime)
	assert.Equal(t, int64(0), entry.TotalActiveTime)
}

func TestClosedTabsEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)

	// Empty archive serializes as [], not null.
	resp, err := http.Get(srv.URL + "/api/closed-tabs")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var body struct {
		ClosedTabs json.RawMessage `json:"closedTabs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.JSONEq(t, `[]`, string(body.ClosedTabs))

	postEvent(t, srv, `{"type":"tab-created","time":0,"tab":{"id":9,"title":"Nine","url":"https://nine.test","windowId":1}}`)
	postEvent(t, srv, `{"type":"tab-activated","time":0,"tabId":9}`)
	postEvent(t, srv, `{"type":"tab-removed","time":6000,"tabId":9}`)

	resp2, err := http.Get(srv.URL + "/api/closed-tabs")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	var body2 struct {
		ClosedTabs []model.ClosedTabRecord `json:"closedTabs"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body2))
	require.Len(t, body2.ClosedTabs, 1)
	rec := body2.ClosedTabs[0]
	assert.Equal(t, "Nine", rec.Title)
	assert.Equal(t, int64(6000), rec.TotalActiveTime)
	assert.Equal(t, int64(6000), rec.TotalTimeOpen)
}

func TestFocusEvents(t *testing.T) {
	srv, now := testServer(t, nil)

	postEvent(t, srv, `{"type":"tab-activated","time":0,"tabId":2}`)
	resp := postEvent(t, srv, fmt.Sprintf(`{"type":"window-focus-changed","time":2000,"windowId":%d}`, model.WindowIDNone))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	*now = time.UnixMilli(9000)
	resp2, err := http.Get(srv.URL + "/api/timing")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	var td model.TimingData
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&td))
	assert.Nil(t, td.ActiveTabID)
	assert.Equal(t, int64(2000), td.TimingData[2].TotalActiveTime)
}

func TestEventValidation(t *testing.T) {
	srv, _ := testServer(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"unknown type", `{"type":"tab-warped"}`},
		{"created without tab", `{"type":"tab-created"}`},
		{"activated without id", `{"type":"tab-activated"}`},
		{"updated without tab", `{"type":"tab-updated","tabId":1}`},
		{"removed without id", `{"type":"tab-removed"}`},
		{"focus without window", `{"type":"window-focus-changed"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postEvent(t, srv, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestReopenEndpoint(t *testing.T) {
	srv, _ := testServer(t, &stubBridge{createdID: 55})

	resp, err := http.Post(srv.URL+"/api/closed-tabs/reopen", "application/json",
		bytes.NewBufferString(`{"url":"https://again.test","title":"Again"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success  bool         `json:"success"`
		NewTabID *model.TabID `json:"newTabId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.NotNil(t, body.NewTabID)
	assert.Equal(t, model.TabID(55), *body.NewTabID)
}

func TestReopenEndpoint_HostRejection(t *testing.T) {
	srv, now := testServer(t, &stubBridge{createErr: &host.Error{Op: "create-tab", Message: "invalid address"}})

	resp, err := http.Post(srv.URL+"/api/closed-tabs/reopen", "application/json",
		bytes.NewBufferString(`{"url":"https://rejected.test"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "invalid address", body.Error)

	// No timing record was created for the rejected reopen.
	*now = time.UnixMilli(100)
	resp2, err := http.Get(srv.URL + "/api/timing")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	var td model.TimingData
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&td))
	assert.Empty(t, td.TimingData)
}

func TestReopenEndpoint_MissingURL(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/closed-tabs/reopen", "application/json",
		bytes.NewBufferString(`{"title":"no url"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
