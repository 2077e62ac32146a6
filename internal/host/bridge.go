// Package host talks back to the browser through the extension's local
// bridge endpoint. The accounting core consumes it for the two operations
// that must originate in the browser: querying the active tab of a focused
// window and reopening a closed tab.
package host

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tabwatch/tabwatch/internal/model"
)

// Bridge is the abstract host contract. Failures surface to callers as
// ordinary errors, never as fatal faults.
type Bridge interface {
	// ActiveTab returns the active tab in the given window, or nil when the
	// host reports none.
	ActiveTab(ctx context.Context, windowID int64) (*model.Tab, error)
	// CreateTab asks the host to open a new tab and returns its id.
	CreateTab(ctx context.Context, url string) (model.TabID, error)
	// Ping reports whether the bridge endpoint is reachable.
	Ping(ctx context.Context) error
}

// Error wraps a host-call failure with the message reported to callers.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("host %s: %s", e.Op, e.Message)
}

// HTTPBridge implements Bridge against the extension's local HTTP endpoint.
type HTTPBridge struct {
	client *resty.Client
}

// NewHTTPBridge creates a bridge client for the given base URL.
func NewHTTPBridge(baseURL string) *HTTPBridge {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &HTTPBridge{client: c}
}

func (b *HTTPBridge) ActiveTab(ctx context.Context, windowID int64) (*model.Tab, error) {
	var out struct {
		Tab *model.Tab `json:"tab"`
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParam("windowId", fmt.Sprintf("%d", windowID)).
		SetResult(&out).
		Get("/tabs/active")
	if err != nil {
		return nil, &Error{Op: "active-tab", Message: err.Error()}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &Error{Op: "active-tab", Message: fmt.Sprintf("status %d: %s", resp.StatusCode(), resp.String())}
	}
	return out.Tab, nil
}

func (b *HTTPBridge) CreateTab(ctx context.Context, url string) (model.TabID, error) {
	var out struct {
		TabID model.TabID `json:"tabId"`
		Error string      `json:"error"`
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"url": url}).
		SetResult(&out).
		SetError(&out).
		Post("/tabs")
	if err != nil {
		return 0, &Error{Op: "create-tab", Message: err.Error()}
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode(), resp.String())
		}
		return 0, &Error{Op: "create-tab", Message: msg}
	}
	return out.TabID, nil
}

func (b *HTTPBridge) Ping(ctx context.Context) error {
	resp, err := b.client.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("bridge status %d", resp.StatusCode())
	}
	return nil
}

var _ Bridge = (*HTTPBridge)(nil)
