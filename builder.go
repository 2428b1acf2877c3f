package storeauth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/panyam/storeauth/oauth2"
	"github.com/panyam/storeauth/settings"
)

// Builder assembles AuthOptions from live store settings. Build is meant to be
// called per request; Settings is expected to cache (see settings.Cache) so
// that this stays cheap.
type Builder struct {
	Settings  settings.Fetcher
	Customers CustomerService

	// Signing secret. Defaults to $AUTH_SECRET, then $NEXTAUTH_SECRET.
	Secret string

	// Callbacks overrides the default callback set when non-nil.
	Callbacks *Callbacks

	Logger *slog.Logger
}

// NewBuilder creates a Builder reading settings from source and verifying
// customers against customers.
func NewBuilder(source settings.Fetcher, customers CustomerService) *Builder {
	return (&Builder{Settings: source, Customers: customers}).EnsureDefaults()
}

func (b *Builder) EnsureDefaults() *Builder {
	if b.Secret == "" {
		b.Secret = SecretFromEnv()
	}
	if b.Logger == nil {
		b.Logger = slog.Default()
	}
	return b
}

// SecretFromEnv returns the signing secret configured in the environment.
func SecretFromEnv() string {
	if s := strings.TrimSpace(os.Getenv("AUTH_SECRET")); s != "" {
		return s
	}
	return strings.TrimSpace(os.Getenv("NEXTAUTH_SECRET"))
}

// Build fetches store settings and returns the provider list (always Google,
// GitHub, Facebook and Credentials, in that order), the callbacks and the
// secret. A settings failure is returned as is.
func (b *Builder) Build(ctx context.Context) (*AuthOptions, error) {
	b.EnsureDefaults()
	storeSetting, err := b.Settings.GetStoreSetting(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}
	if storeSetting == nil {
		storeSetting = &settings.StoreSetting{}
	}

	providers := []Provider{
		&OAuthProvider{oauth2.Google(storeSetting.GoogleID, storeSetting.GoogleSecret)},
		&OAuthProvider{oauth2.GitHub(storeSetting.GithubID, storeSetting.GithubSecret)},
		&OAuthProvider{oauth2.Facebook(storeSetting.FacebookID, storeSetting.FacebookSecret)},
		&CredentialsProvider{
			Name:      "Credentials",
			Fields:    DefaultCredentialFields(),
			Authorize: b.authorize,
		},
	}

	callbacks := NewCallbacks(b.Customers, b.Logger)
	if b.Callbacks != nil {
		callbacks = mergeCallbacks(callbacks, *b.Callbacks)
	}

	return &AuthOptions{
		Providers: providers,
		Callbacks: callbacks,
		Secret:    b.Secret,
	}, nil
}

// authorize delegates credential verification to the customer service and
// turns failures into a customer facing AuthError.
func (b *Builder) authorize(ctx context.Context, creds Credentials) (*User, error) {
	user, err := b.Customers.LoginCustomer(ctx, creds)
	if err != nil {
		b.Logger.Info("credential login rejected", "email", creds.Email, "err", err)
		return nil, &AuthError{Message: ErrorMessage(err), Err: err}
	}
	if user == nil {
		return nil, &AuthError{Message: DefaultLoginFailedMessage}
	}
	return user, nil
}

func mergeCallbacks(base, override Callbacks) Callbacks {
	if override.SignIn != nil {
		base.SignIn = override.SignIn
	}
	if override.JWT != nil {
		base.JWT = override.JWT
	}
	if override.Session != nil {
		base.Session = override.Session
	}
	if override.Redirect != nil {
		base.Redirect = override.Redirect
	}
	return base
}
