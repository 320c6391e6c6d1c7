// Package remoteaudit forwards ingest audit events to an HTTP collector.
package remoteaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/misc"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
)

// Client sends audit events to a remote HTTP endpoint.
type Client struct {
	hc       *http.Client
	endpoint string
	delays   misc.Backoff
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("audit post status %d", e.code)
}

// New validates the endpoint URL and returns a Client that POSTs audit events there.
func New(rawURL string, hc *http.Client) (*Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("audit url is empty")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("invalid audit url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{endpoint: rawURL, hc: hc, delays: misc.DefaultBackoff}, nil
}

// Notify posts the event, retrying network failures and 5xx responses.
func (c *Client) Notify(ctx context.Context, evt audit.Event) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return misc.Retry(ctx, c.delays, retryable, func() error {
		return c.post(ctx, payload)
	})
}

func (c *Client) post(ctx context.Context, payload []byte) (retErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("audit post: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close audit response: %w", cerr)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain audit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}
