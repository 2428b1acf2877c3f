package storeauth

import (
	"context"
	"errors"

	"github.com/panyam/storeauth/oauth2"
)

// ErrProviderNotFound is returned when a provider id is not configured.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderType is the kind of sign-in a provider offers.
type ProviderType string

const (
	ProviderTypeOAuth       ProviderType = "oauth"
	ProviderTypeCredentials ProviderType = "credentials"
)

// ProviderInfo is the public description of a provider.
type ProviderInfo struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type ProviderType `json:"type"`
}

// Provider is either an *OAuthProvider or a *CredentialsProvider.
type Provider interface {
	Info() ProviderInfo
}

// OAuthProvider adapts an oauth2.Provider to the provider list.
type OAuthProvider struct {
	*oauth2.Provider
}

func (p *OAuthProvider) Info() ProviderInfo {
	return ProviderInfo{ID: p.ID, Name: p.Name, Type: ProviderTypeOAuth}
}

// Trigger says why the JWT callback is being invoked.
type Trigger string

const (
	TriggerSignIn Trigger = "signIn"
	TriggerUpdate Trigger = "update"
)

// JWTParams is the input of the JWT callback. User and Account are only set
// on sign-in, Session only on an update.
type JWTParams struct {
	Token   *Token
	User    *User
	Account *Account
	Trigger Trigger
	Session *SessionUpdate
}

type (
	// SignInFunc decides whether a candidate identity may get a session.
	SignInFunc func(ctx context.Context, user *User, account *Account) bool

	// JWTFunc shapes the token every time it is issued or read back.
	JWTFunc func(ctx context.Context, params JWTParams) *Token

	// SessionFunc projects the token onto the session handed to the application.
	SessionFunc func(ctx context.Context, session *Session, token *Token) *Session

	// RedirectFunc decides where to send the browser after sign-in or sign-out.
	RedirectFunc func(url, baseURL string) string
)

// Callbacks is the set of hooks run by the auth runtime.
type Callbacks struct {
	SignIn   SignInFunc
	JWT      JWTFunc
	Session  SessionFunc
	Redirect RedirectFunc
}

// AuthOptions is the complete configuration the auth runtime works from.
type AuthOptions struct {
	Providers []Provider
	Callbacks Callbacks

	// Key the session token is signed with
	Secret string
}

// Provider looks a provider up by id.
func (o *AuthOptions) Provider(id string) (Provider, error) {
	for _, p := range o.Providers {
		if p.Info().ID == id {
			return p, nil
		}
	}
	return nil, ErrProviderNotFound
}

// OAuthProvider looks an OAuth provider up by id.
func (o *AuthOptions) OAuthProvider(id string) (*OAuthProvider, error) {
	p, err := o.Provider(id)
	if err != nil {
		return nil, err
	}
	op, ok := p.(*OAuthProvider)
	if !ok {
		return nil, ErrProviderNotFound
	}
	return op, nil
}

// CredentialsProvider returns the credentials provider, if configured.
func (o *AuthOptions) CredentialsProvider() (*CredentialsProvider, error) {
	p, err := o.Provider(CredentialsProviderID)
	if err != nil {
		return nil, err
	}
	cp, ok := p.(*CredentialsProvider)
	if !ok {
		return nil, ErrProviderNotFound
	}
	return cp, nil
}
