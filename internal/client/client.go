// Package client talks to the budgeting backend over HTTP.
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
	"strings"
	"time"

	"github.com/theirongolddev/thriftify/internal/buildinfo"
	"github.com/theirongolddev/thriftify/internal/model"
)

const (
	// DefaultTimeout bounds every request when no timeout is configured.
	DefaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrNotFound indicates the requested budget does not exist.
	ErrNotFound = errors.New("client: not found")
	// ErrStatus indicates the server answered with a non-2xx status.
	ErrStatus = errors.New("client: unexpected status")
	// ErrRateLimited indicates the server rejected the request for rate.
	ErrRateLimited = errors.New("client: rate limited")
)

// StatusError carries the status code and server message of a failed request.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("client: unexpected status %d: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is match the sentinel for the status class.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return ErrStatus
}

// Client fetches dashboard data and submits budgets and spending.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the backend at baseURL.
// Returns an error if baseURL is not an absolute http(s) URL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: invalid server URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
	}, nil
}

// Dashboard fetches the active budget, its spending and the full budget list.
// An empty budgetID lets the server pick its default (the latest budget).
func (c *Client) Dashboard(ctx context.Context, budgetID string) (*model.Dashboard, error) {
	body, err := c.get(ctx, "/dashboardData", budgetQuery(budgetID))
	if err != nil {
		return nil, err
	}

	var d model.Dashboard
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("client: parsing dashboard: %w", err)
	}
	return &d, nil
}

// Stats fetches per-purpose spending totals for a budget.
func (c *Client) Stats(ctx context.Context, budgetID string) (*model.Stats, error) {
	body, err := c.get(ctx, "/stats", budgetQuery(budgetID))
	if err != nil {
		return nil, err
	}

	var s model.Stats
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("client: parsing stats: %w", err)
	}
	return &s, nil
}

// CreateBudget posts a new budget.
func (c *Client) CreateBudget(ctx context.Context, b model.NewBudget) error {
	_, err := c.post(ctx, "/createBudget", b)
	return err
}

// LogSpending posts a spending entry.
func (c *Client) LogSpending(ctx context.Context, s model.NewSpending) error {
	_, err := c.post(ctx, "/spendingBudget", s)
	return err
}

func budgetQuery(budgetID string) url.Values {
	if budgetID == "" {
		return nil
	}
	return url.Values{"budget_id": {budgetID}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("client: encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, data)
}

// do performs a request and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("client: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "thriftify/"+buildinfo.Version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	//nolint:gosec // URL is built from the configured server
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: serverMessage(respBody)}
	}
	return respBody, nil
}

// serverMessage extracts {"error": "..."} or {"message": "..."} from a body.
func serverMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	if m.Error != "" {
		return m.Error
	}
	return m.Message
}
