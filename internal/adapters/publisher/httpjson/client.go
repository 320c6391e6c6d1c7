// Package httpjson delivers rendered datapoint payloads to a SignalFx-compatible ingest endpoint.
package httpjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/misc"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// DatapointPath is the SignalFx ingest route for gauge/counter payloads.
const DatapointPath = "/v2/datapoint"

// TokenHeader carries the organization access token.
const TokenHeader = "X-SF-Token"

// Client posts gzipped JSON payloads with retries.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  *zap.Logger
	key  string
}

var _ ports.Publisher = (*Client)(nil)

var (
	gzipWriterPool = misc.NewPool(
		func() *gzip.Writer { return gzip.NewWriter(io.Discard) },
		func(zw *gzip.Writer) { zw.Reset(io.Discard) },
	)
	bufferPool = misc.NewPool(func() *bytes.Buffer {
		return new(bytes.Buffer)
	}, nil)
)

// New normalizes the base address, configures the HTTP client, and returns a Client instance.
func New(ingestAddr string, hc *http.Client, key string, log *zap.Logger) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	u, err := url.Parse(normalizeBase(ingestAddr))
	if err != nil {
		return nil, err
	}
	return &Client{base: u, hc: hc, key: strings.TrimSpace(key), log: log}, nil
}

func normalizeBase(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// Send posts body to the datapoint endpoint authenticated with token.
func (c *Client) Send(ctx context.Context, token string, body []byte) (retErr error) {
	if len(body) == 0 {
		return nil
	}

	var hashHeader string
	if c.key != "" {
		hashHeader = misc.SumSHA256(body, c.key)
	}

	gzPayload, err := gzipBytes(body)
	if err != nil {
		return err
	}
	defer gzPayload.Release()
	gzBody := gzPayload.Bytes()

	resp, err := c.sendWithRetry(ctx, func() (*http.Request, error) {
		return c.newGzJSONRequest(ctx, token, gzBody, hashHeader)
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if err := drainAndDiscard(resp); err != nil {
		return err
	}
	return checkHTTPStatus(resp)
}

type httpStatusError struct {
	msg  string
	code int
}

func (e *httpStatusError) Error() string {
	return e.msg
}

// Unwrap lets callers match rejected tokens with errors.Is(err, domain.ErrUnauthorized).
func (e *httpStatusError) Unwrap() error {
	if e.code == http.StatusUnauthorized || e.code == http.StatusForbidden {
		return domain.ErrUnauthorized
	}
	return nil
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

type compressedPayload struct {
	buf *bytes.Buffer
}

func (p *compressedPayload) Bytes() []byte {
	if p == nil || p.buf == nil {
		return nil
	}
	return p.buf.Bytes()
}

func (p *compressedPayload) Release() {
	if p == nil || p.buf == nil {
		return
	}
	bufferPool.Put(p.buf)
	p.buf = nil
}

func gzipBytes(src []byte) (*compressedPayload, error) {
	buf := bufferPool.Get()
	buf.Reset()
	zw := gzipWriterPool.Get()
	zw.Reset(buf)
	defer gzipWriterPool.Put(zw)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return &compressedPayload{buf: buf}, nil
}

func (c *Client) newGzJSONRequest(ctx context.Context, token string, body []byte, hashHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(DatapointPath), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set(TokenHeader, token)
	if hashHeader != "" {
		req.Header.Set("HashSHA256", hashHeader)
	}

	return req, nil
}

func (c *Client) sendWithRetry(ctx context.Context, mkReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		req, err := mkReq()
		if err != nil {
			return err
		}
		r, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		if isRetryableHTTP(checkHTTPStatus(r)) {
			_ = drainAndDiscard(r)
			_ = r.Body.Close()
			return checkHTTPStatus(r)
		}
		resp = r
		return nil
	}
	notify := func(attempt int, err error, wait time.Duration) {
		c.log.Warn("ingest retry",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := misc.RetryNotify(ctx, misc.DefaultBackoff, isRetryableHTTP, op, notify); err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	return resp, nil
}

func drainAndDiscard(resp *http.Response) error {
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("bad gzip: %w", err)
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("drain body: %w", err)
	}
	return nil
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{code: resp.StatusCode, msg: fmt.Sprintf("ingest status: %s", resp.Status)}
	}
	return nil
}
