// Package oauth2 describes the third-party identity providers a storefront can
// offer (Google, GitHub, Facebook) on top of golang.org/x/oauth2. A Provider
// knows its endpoints, scopes and how to turn an access token into a
// normalized Profile; driving the browser through the flow is left to the
// caller.
package oauth2

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Profile is the normalized identity a provider returns for an access token.
type Profile struct {
	ID    string
	Name  string
	Email string
	Image string

	// Raw is the provider's user payload as decoded JSON.
	Raw map[string]any
}

// ProfileFunc fetches the signed-in user's profile from the provider.
type ProfileFunc func(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error)

// Provider is a configured OAuth2 identity provider.
type Provider struct {
	ID   string
	Name string

	ClientId     string
	ClientSecret string

	// UserInfoURL is the URL to fetch user info from. Can be overridden for testing.
	UserInfoURL string

	// HTTPClient is used for token exchange and profile requests. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client

	oauthConfig oauth2.Config
	profile     ProfileFunc
}

// NewProvider creates a provider with the given endpoint and scopes. Empty
// client credentials are kept as is; such a provider is listed but cannot
// complete a sign-in.
func NewProvider(id, name, clientId, clientSecret string, endpoint oauth2.Endpoint, scopes []string, profile ProfileFunc) *Provider {
	return &Provider{
		ID:           id,
		Name:         name,
		ClientId:     clientId,
		ClientSecret: clientSecret,
		profile:      profile,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
}

// Configured reports whether both client credentials are set.
func (p *Provider) Configured() bool {
	return p.ClientId != "" && p.ClientSecret != ""
}

// Scopes returns the scopes requested from the provider.
func (p *Provider) Scopes() []string {
	return append([]string(nil), p.oauthConfig.Scopes...)
}

// Endpoint returns the provider's authorization and token endpoints.
func (p *Provider) Endpoint() oauth2.Endpoint {
	return p.oauthConfig.Endpoint
}

// SetOAuthEndpoint overrides the authorization and token endpoints.
func (p *Provider) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	p.oauthConfig.Endpoint = endpoint
}

// SetHTTPClient sets the client used for all provider requests.
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.HTTPClient = client
}

// ExchangeContext returns ctx carrying the provider's HTTP client so that the
// oauth2 library uses it for token requests.
func (p *Provider) ExchangeContext(ctx context.Context) context.Context {
	if p.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
}

// Config returns a copy of the oauth2 config with the redirect URL filled in.
func (p *Provider) Config(redirectURL string) *oauth2.Config {
	cfg := p.oauthConfig
	cfg.Scopes = p.Scopes()
	cfg.RedirectURL = redirectURL
	return &cfg
}

// AuthCodeURL builds the provider authorization URL for state.
func (p *Provider) AuthCodeURL(state, redirectURL string) string {
	return p.Config(redirectURL).AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	token, err := p.Config(redirectURL).Exchange(p.ExchangeContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.ID, err)
	}
	return token, nil
}

// FetchProfile loads the user's profile using token.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	if p.profile == nil {
		return nil, fmt.Errorf("%s: no profile fetcher configured", p.ID)
	}
	profile, err := p.profile(ctx, p, token)
	if err != nil {
		return nil, fmt.Errorf("%s profile request failed: %w", p.ID, err)
	}
	return profile, nil
}

// Client returns an HTTP client that authorizes requests with token.
func (p *Provider) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	return p.oauthConfig.Client(p.ExchangeContext(ctx), token)
}
