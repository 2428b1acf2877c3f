package storeauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CredentialsProviderID is the provider id of the email/password provider.
const CredentialsProviderID = "credentials"

// DefaultLoginFailedMessage is shown when the backend gives no reason for a
// failed login.
const DefaultLoginFailedMessage = "Login failed! Please try again."

// Credentials represents what a customer types into the login form
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CredentialField describes one input of the credentials login form.
type CredentialField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// AuthorizeFunc verifies credentials and returns the signed-in user.
type AuthorizeFunc func(ctx context.Context, creds Credentials) (*User, error)

// CredentialsProvider signs customers in with email and password. Verification
// is done by Authorize; this package never sees password hashes.
type CredentialsProvider struct {
	Name      string
	Fields    []CredentialField
	Authorize AuthorizeFunc
}

func (p *CredentialsProvider) Info() ProviderInfo {
	return ProviderInfo{ID: CredentialsProviderID, Name: p.Name, Type: ProviderTypeCredentials}
}

// DefaultCredentialFields are the fields of the standard login form.
func DefaultCredentialFields() []CredentialField {
	return []CredentialField{
		{Name: "email", Label: "Email", Type: "email"},
		{Name: "password", Label: "Password", Type: "password"},
	}
}

// AuthError is a login failure whose Message is safe to show to the customer.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ResponseError is returned by a CustomerService when the backend answered
// with an error status. Message is the backend's message, possibly empty.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed: HTTP %d", e.StatusCode)
}

// ErrorMessage extracts the customer facing message from a backend error,
// falling back to DefaultLoginFailedMessage.
func ErrorMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) && strings.TrimSpace(respErr.Message) != "" {
		return respErr.Message
	}
	return DefaultLoginFailedMessage
}
