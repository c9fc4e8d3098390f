// Package client provides a Go client for the administrative API of a
// mockbetter server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the HTTP timeout of a new Client.
const DefaultTimeout = 30 * time.Second

// APIError is an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrConnection wraps failures to reach the server.
var ErrConnection = errors.New("cannot connect to mock server")

// ErrInvalidTenant is returned for a tenant name containing '/', which the
// server would read as two path segments.
var ErrInvalidTenant = errors.New("tenant name must not contain '/'")

// Route is a route registration. Code may be any status code string;
// Headers extend the global response headers.
type Route struct {
	Method  string            `json:"method,omitempty"`
	Path    string            `json:"path,omitempty"`
	Code    string            `json:"code,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// RouteCriteria selects routes to delete. Empty fields match every route.
type RouteCriteria struct {
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
}

// HistoryEntry is one recorded mock request.
type HistoryEntry struct {
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body"`
	Path   string          `json:"path"`
}

// HistoryFilter narrows a history query.
type HistoryFilter struct {
	Method string
	Path   string
	// JSONPath keeps entries for which the expression yields a value.
	JSONPath string
	// Where keeps entries for which the boolean expression over method,
	// path and body holds.
	Where string
	// Limit keeps the most recent entries (0 = all).
	Limit int
}

func (f *HistoryFilter) query() string {
	if f == nil {
		return ""
	}
	q := url.Values{}
	if f.Method != "" {
		q.Set("method", f.Method)
	}
	if f.Path != "" {
		q.Set("path", f.Path)
	}
	if f.JSONPath != "" {
		q.Set("filter", f.JSONPath)
	}
	if f.Where != "" {
		q.Set("where", f.Where)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Client talks to the administrative endpoints of a mock server.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the server at baseURL (e.g.
// "http://localhost:4280") whose administrative prefix is prefix.
func New(baseURL, prefix string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     prefix,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the full configuration document.
func (c *Client) Config(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, c.path("conf"), nil)
}

// MergeConfig deep-merges update into the configuration and returns the
// resulting document. update must encode to a JSON object.
func (c *Client) MergeConfig(ctx context.Context, update any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, c.path("conf"), update)
}

// Reset restores the factory configuration.
func (c *Client) Reset(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, c.path("reset"), nil)
}

// AddRoute registers route for tenant. Registering an existing method and
// path again is a no-op.
func (c *Client) AddRoute(ctx context.Context, tenant string, route Route) (json.RawMessage, error) {
	p, err := c.tenantPath("routes", tenant)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, p, route)
}

// DeleteRoutes removes the routes of tenant selected by criteria.
func (c *Client) DeleteRoutes(ctx context.Context, tenant string, criteria RouteCriteria) (json.RawMessage, error) {
	p, err := c.tenantPath("routes", tenant)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, p, criteria)
}

// History returns the recorded requests of tenant.
func (c *Client) History(ctx context.Context, tenant string, filter *HistoryFilter) ([]HistoryEntry, error) {
	p, err := c.tenantPath("history", tenant)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodGet, p+filter.query(), nil)
	if err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return entries, nil
}

// ClearHistory empties the history of tenant.
func (c *Client) ClearHistory(ctx context.Context, tenant string) (json.RawMessage, error) {
	p, err := c.tenantPath("history", tenant)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, p, nil)
}

func (c *Client) tenantPath(resource, tenant string) (string, error) {
	if strings.Contains(tenant, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenant, tenant)
	}
	return c.path(resource, tenant), nil
}

func (c *Client) path(segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, url.PathEscape(c.prefix))
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return "/" + strings.Join(parts, "/")
}

// do performs a request and returns the response body of a successful call.
func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrConnection, c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// parseError builds an APIError from an error response body.
func parseError(status int, body []byte) error {
	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{StatusCode: status, Message: errResp.Message}
	}
	return &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("server returned status %d: %s", status, string(body)),
	}
}
