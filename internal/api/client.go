// Package api is the typed HTTP client for the planner backend. It attaches
// the current bearer credential to every request and reacts to credential
// rejection process-wide, so callers never handle authentication themselves.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Error is a response the backend answered with a non-2xx status.
// Transport-level failures are returned as-is, never wrapped in Error, so
// connectivity classification stays possible.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsConnectivityError reports whether err looks like the backend was
// unreachable rather than the backend rejecting the request. It is the
// default predicate; the task store accepts an injected override for tests.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// TokenStore persists the bearer credential across process restarts.
// Loading before any token was ever saved must yield an empty string, not an
// error.
type TokenStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	DeleteToken() error
}

// Client issues authenticated requests against the versioned API prefix.
type Client struct {
	baseURL string
	http    *http.Client

	mu             sync.Mutex
	token          string
	tokens         TokenStore
	onUnauthorized func()
}

// New builds a client for the given server base URL, e.g.
// "http://localhost:8080". A nil httpClient falls back to the default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// UseTokenStore attaches persistent session storage and restores any
// previously saved credential, so a restarted client resumes its session.
func (c *Client) UseTokenStore(ts TokenStore) error {
	token, err := ts.LoadToken()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
	c.token = token
	return nil
}

// SetToken stores the bearer credential attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.persistTokenLocked()
}

// Token returns the current bearer credential, empty when logged out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ClearToken drops the stored credential, in memory and persisted.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.persistTokenLocked()
}

// persistTokenLocked mirrors the in-memory credential into the attached
// token store. A failed write costs at most a re-login after restart, so it
// does not fail the calling operation.
func (c *Client) persistTokenLocked() {
	if c.tokens == nil {
		return
	}
	if c.token == "" {
		_ = c.tokens.DeleteToken()
		return
	}
	_ = c.tokens.SaveToken(c.token)
}

// OnUnauthorized registers a hook invoked whenever the backend rejects the
// credential. The token is cleared before the hook runs.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// do sends one JSON request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send attaches the bearer credential, executes the request and applies the
// process-wide 401 handling.
func (c *Client) send(req *http.Request, out any) error {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) handleUnauthorized() {
	c.mu.Lock()
	c.token = ""
	c.persistTokenLocked()
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func decodeErrorMessage(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Error == "" {
		return "request failed"
	}
	return payload.Error
}
