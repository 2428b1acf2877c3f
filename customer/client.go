// Package customer talks to the store backend's customer endpoints.
package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/panyam/storeauth"
)

const (
	DefaultLoginPath       = "/customer/login"
	DefaultOAuthSignupPath = "/customer/signup/oauth"
	DefaultTimeout         = 10 * time.Second
)

// Client is a storeauth.CustomerService backed by the store's REST API.
type Client struct {
	baseURL         string
	loginPath       string
	oauthSignupPath string
	httpClient      *http.Client
	logger          *slog.Logger
}

var _ storeauth.CustomerService = (*Client)(nil)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTransport sets a custom base transport (for connection pooling, proxies, etc.)
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithPaths overrides the login and OAuth sign-up endpoint paths.
func WithPaths(login, oauthSignup string) ClientOption {
	return func(c *Client) {
		if login != "" {
			c.loginPath = login
		}
		if oauthSignup != "" {
			c.oauthSignupPath = oauthSignup
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a customer client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         baseURL,
		loginPath:       DefaultLoginPath,
		oauthSignupPath: DefaultOAuthSignupPath,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// customerResponse is the backend's customer record.
type customerResponse struct {
	Token   string `json:"token"`
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Image   string `json:"image"`
}

// LoginCustomer verifies email and password with the backend.
func (c *Client) LoginCustomer(ctx context.Context, creds storeauth.Credentials) (*storeauth.User, error) {
	body := map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}
	var res customerResponse
	if err := c.post(ctx, c.loginPath, body, &res); err != nil {
		return nil, err
	}
	return &storeauth.User{
		ID:         res.ID,
		CustomerID: res.ID,
		Name:       res.Name,
		Email:      res.Email,
		Address:    res.Address,
		Phone:      res.Phone,
		Image:      res.Image,
		Token:      res.Token,
	}, nil
}

// SignUpWithOauthProvider registers or links the customer behind an OAuth
// identity.
func (c *Client) SignUpWithOauthProvider(ctx context.Context, user *storeauth.User) (*storeauth.OAuthSignup, error) {
	if user == nil {
		return nil, fmt.Errorf("no user to sign up")
	}
	var res storeauth.OAuthSignup
	if err := c.post(ctx, c.oauthSignupPath, user, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &storeauth.ResponseError{StatusCode: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			rerr.Message = body.Message
		}
		c.logger.Debug("backend rejected request", "path", path, "status", resp.StatusCode, "message", rerr.Message)
		return rerr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}
