package visits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	recordPath = "/api/visit"
	totalPath  = "/api/visits"

	defaultClientTimeout = 5 * time.Second
)

// Client talks to the web server's counter endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Record posts a visit and returns the total reported by the server.
func (c *Client) Record(ctx context.Context) (int64, error) {
	totals, err := c.do(ctx, http.MethodPost, recordPath, bytes.NewReader([]byte("{}")))
	if err != nil {
		return 0, err
	}
	return totals.Total, nil
}

// Total fetches the current total.
func (c *Client) Total(ctx context.Context) (int64, error) {
	totals, err := c.do(ctx, http.MethodGet, totalPath, nil)
	if err != nil {
		return 0, err
	}
	return totals.Total, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (Totals, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Totals{}, fmt.Errorf("visits: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Totals{}, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Totals{}, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	var totals Totals
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&totals); err != nil {
		return Totals{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return totals, nil
}
