// Package remote is the HTTP client of the store API. It implements the
// orchestrators' PlannerStore and the catalog's CatalogSource.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"partyplanner/internal/adapters/http/api"
)

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL     string
	Token       string // optional; Login sets it
	Timeout     time.Duration
	ReadRetries int // retries for GET requests; writes are never retried
}

// Client talks to the store API.
// INVARIANT: mutations go through writes, which has no retrier, so a request
// that reached the server is never replayed.
type Client struct {
	baseURL string
	reads   *httpclient.Client
	writes  *httpclient.Client

	mu    sync.RWMutex
	token string
}

// NewClient returns a Client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 50*time.Millisecond)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		reads: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
			httpclient.WithRetryCount(cfg.ReadRetries),
		),
		writes: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
		token: cfg.Token,
	}
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// StatusError is a non-2xx answer from the store API.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// RemoteMessage returns the message the store sent, if any.
func (e *StatusError) RemoteMessage() string {
	return e.Message
}

// IsStatus reports whether err wraps a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.reads, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, c.writes, method, path, in, out)
}

// do performs one request and decodes a JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, hc *httpclient.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	// heimdall reports a 5xx as an error alongside the response.
	if err != nil && resp == nil {
		slog.Warn("remote_event", "event", "request_failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	slog.Debug("remote_event", "event", "request", "method", method, "path", path,
		"status", resp.StatusCode, "ms", time.Since(start).Milliseconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var msg api.Message
		json.Unmarshal(raw, &msg)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func pathID(prefix string, ids ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ids {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(id))
	}
	return b.String()
}

func occupiedQuery(customerID string, horizonDays int) string {
	q := url.Values{}
	if customerID != "" {
		q.Set("customer", customerID)
	}
	q.Set("days", strconv.Itoa(horizonDays))
	return "/schedule/events/next?" + q.Encode()
}
