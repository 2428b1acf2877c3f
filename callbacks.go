package storeauth

import (
	"context"
	"log/slog"
	"strings"
)

// DashboardPath is where sign-ins land when the requested URL is not on the
// storefront.
const DashboardPath = "/user/dashboard"

// CustomerService is the backend service that owns customer accounts.
type CustomerService interface {
	// LoginCustomer verifies email and password. Failures carry a
	// *ResponseError when the backend explained itself.
	LoginCustomer(ctx context.Context, creds Credentials) (*User, error)

	// SignUpWithOauthProvider links (or creates) the customer behind an OAuth
	// identity and returns the backend's view of them.
	SignUpWithOauthProvider(ctx context.Context, user *User) (*OAuthSignup, error)
}

// OAuthSignup is the backend response to an OAuth sign-up or link.
type OAuthSignup struct {
	Token      string `json:"token,omitempty"`
	CustomerID string `json:"_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Image      string `json:"image,omitempty"`
}

// NewCallbacks returns the storefront's callback set backed by customers.
func NewCallbacks(customers CustomerService, logger *slog.Logger) Callbacks {
	if logger == nil {
		logger = slog.Default()
	}
	return Callbacks{
		SignIn:   signInGate(customers, logger),
		JWT:      EnrichToken,
		Session:  ProjectSession,
		Redirect: SafeRedirect,
	}
}

// signInGate links OAuth identities with the backend before they get a
// session. Credential sign-ins were verified by Authorize already. Linkage
// failures deny the sign-in rather than surface as errors.
func signInGate(customers CustomerService, logger *slog.Logger) SignInFunc {
	return func(ctx context.Context, user *User, account *Account) bool {
		if account == nil {
			logger.Error("sign-in without an account")
			return false
		}
		if account.IsCredentials() {
			return true
		}
		if user == nil {
			logger.Error("oauth sign-in without a user", "provider", account.Provider)
			return false
		}

		res, err := customers.SignUpWithOauthProvider(ctx, user)
		if err != nil {
			logger.Error("oauth sign-in exception", "provider", account.Provider, "email", user.Email, "err", err)
			return false
		}
		if res == nil || res.Token == "" {
			logger.Error("oauth sign-in: no token received", "provider", account.Provider, "email", user.Email)
			return false
		}

		user.Token = res.Token
		user.CustomerID = res.CustomerID
		user.Address = res.Address
		user.Phone = res.Phone
		user.Image = res.Image
		return true
	}
}

// EnrichToken copies the signed-in user onto the token and applies session
// updates. On any other invocation the token passes through unchanged.
func EnrichToken(ctx context.Context, params JWTParams) *Token {
	token := params.Token
	if token == nil {
		token = &Token{}
	}

	if user := params.User; user != nil {
		token.ID = user.CustomerID
		token.Name = user.Name
		token.Email = user.Email
		token.Address = user.Address
		token.Phone = user.Phone
		token.Image = user.Image
		token.Token = user.Token
	}

	if params.Trigger == TriggerUpdate && params.Session != nil && params.Session.User != nil {
		u := params.Session.User
		setIfPresent(&token.ID, u.ID)
		setIfPresent(&token.Name, u.Name)
		setIfPresent(&token.Email, u.Email)
		setIfPresent(&token.Address, u.Address)
		setIfPresent(&token.Phone, u.Phone)
		setIfPresent(&token.Image, u.Image)
		setIfPresent(&token.Token, u.Token)
	}

	return token
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ProjectSession copies every tracked token field onto the session.
func ProjectSession(ctx context.Context, session *Session, token *Token) *Session {
	if session == nil {
		session = &Session{}
	}
	if token == nil {
		return session
	}
	session.User = SessionUser{
		ID:      token.ID,
		Name:    token.Name,
		Email:   token.Email,
		Address: token.Address,
		Phone:   token.Phone,
		Image:   token.Image,
		Token:   token.Token,
	}
	return session
}

// SafeRedirect keeps redirects on the storefront: url is returned when it
// starts with baseURL, anything else goes to the dashboard. The prefix must
// end at a path, query or fragment boundary so that a host such as
// "site.com.evil.com" does not pass for "site.com". This is stricter than a
// raw prefix match.
func SafeRedirect(url, baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL != "" && strings.HasPrefix(url, baseURL) {
		rest := url[len(baseURL):]
		if rest == "" || strings.ContainsRune("/?#", rune(rest[0])) {
			return url
		}
	}
	return baseURL + DashboardPath
}
