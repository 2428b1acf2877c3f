package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultStoreSettingPath is where the backend serves the store setting record.
const DefaultStoreSettingPath = "/setting/store-setting/all"

// DefaultRetryMax is the number of retries issued after a failed fetch.
const DefaultRetryMax = 1

// Client fetches store settings from the backend over HTTP.
type Client struct {
	baseURL string
	path    string
	http    *retryablehttp.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithPath overrides the store setting endpoint path.
func WithPath(path string) ClientOption {
	return func(c *Client) {
		c.path = path
	}
}

// WithRetryMax sets how many times a failed fetch is retried.
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(min, max time.Duration) ClientOption {
	return func(c *Client) {
		c.http.RetryWaitMin = min
		c.http.RetryWaitMax = max
	}
}

// WithTransport sets the base transport used for requests.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.http.HTTPClient.Transport = transport
	}
}

// WithLogger routes retry diagnostics to the given logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.http.Logger = logger
		}
	}
}

// NewClient creates a settings client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = DefaultRetryMax
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = slog.Default()

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		path:    DefaultStoreSettingPath,
		http:    rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetStoreSetting implements Fetcher.
func (c *Client) GetStoreSetting(ctx context.Context) (*StoreSetting, error) {
	endpoint, err := url.JoinPath(c.baseURL, c.path)
	if err != nil {
		return nil, fmt.Errorf("invalid settings url: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store settings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store settings: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("store settings request failed: HTTP %d", resp.StatusCode)
	}

	var setting StoreSetting
	if err := json.Unmarshal(body, &setting); err != nil {
		return nil, fmt.Errorf("invalid store settings response: %w", err)
	}
	return &setting, nil
}
