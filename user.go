package storeauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a candidate identity produced by a provider during sign-in, or the
// customer record returned by the backend after a credential login.
type User struct {
	// Provider side subject (OAuth) or backend id (credentials)
	ID string `json:"id,omitempty"`

	// Backend customer id
	CustomerID string `json:"_id,omitempty"`

	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Image   string `json:"image,omitempty"`

	// Opaque token issued by the backend for calls made on the customer's behalf
	Token string `json:"token,omitempty"`
}

// AccountType distinguishes how an account authenticated.
type AccountType string

const (
	AccountTypeOAuth       AccountType = "oauth"
	AccountTypeCredentials AccountType = "credentials"
)

// Account describes the provider account a sign-in came through.
type Account struct {
	Provider          string      `json:"provider"`
	Type              AccountType `json:"type"`
	ProviderAccountID string      `json:"providerAccountId"`

	// Set for OAuth accounts only
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsCredentials reports whether the account signed in with email and password.
func (a *Account) IsCredentials() bool {
	return a != nil && (a.Type == AccountTypeCredentials || a.Provider == CredentialsProviderID)
}

// Token is the long lived carrier of the signed-in identity. It is issued on
// sign-in, enriched by the JWT callback and signed into the session as a JWT.
type Token struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Image   string `json:"image,omitempty"`
	Token   string `json:"token,omitempty"`

	jwt.RegisteredClaims
}

// SessionUser is the user part of a Session.
type SessionUser struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Image   string `json:"image,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Session is what the rest of the application sees of a signed-in customer.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// SessionUpdate is the body of a session update request. Only the fields
// present in the request are applied to the token.
type SessionUpdate struct {
	User *UserUpdate `json:"user"`
}

// UserUpdate carries optional replacements for the tracked identity fields.
type UserUpdate struct {
	ID      *string `json:"id,omitempty"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Image   *string `json:"image,omitempty"`
	Token   *string `json:"token,omitempty"`
}
