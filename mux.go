package storeauth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/panyam/storeauth/oauth2"
)

// OptionsFunc produces the auth configuration for a request.
type OptionsFunc func(ctx context.Context) (*AuthOptions, error)

// Auth serves the sign-in, callback, session and sign-out endpoints for the
// configuration produced by Options. Options is consulted on every request so
// provider credentials follow the store settings.
type Auth struct {
	Options OptionsFunc

	// Public URL of the storefront, e.g. https://shop.example.com
	BaseURL string

	// Prefix all auth routes live under. Defaults to /api/auth
	BasePath string

	// Session manager holding the signed token. Defaults to an in-memory store.
	Session *scs.SessionManager

	// How long a session token is valid for. Defaults to 30 days
	SessionMaxAge time.Duration

	// Name of the session key the signed token is stored under
	TokenSessionKey string

	Logger *slog.Logger

	// Clock, defaults to time.Now
	Now func() time.Time
}

// New creates an Auth runtime for the given builder.
func New(options OptionsFunc, baseURL string) *Auth {
	return (&Auth{Options: options, BaseURL: baseURL}).EnsureDefaults()
}

func (a *Auth) EnsureDefaults() *Auth {
	a.BaseURL = strings.TrimSuffix(a.BaseURL, "/")
	if a.BasePath == "" {
		a.BasePath = "/api/auth"
	}
	a.BasePath = "/" + strings.Trim(a.BasePath, "/")
	if a.SessionMaxAge <= 0 {
		a.SessionMaxAge = DefaultSessionMaxAge
	}
	if a.TokenSessionKey == "" {
		a.TokenSessionKey = "storeauth.session-token"
	}
	if a.Session == nil {
		a.Session = scs.New()
		a.Session.Lifetime = a.SessionMaxAge
		a.Session.Cookie.Name = "storeauth_session"
		a.Session.Cookie.HttpOnly = true
		a.Session.Cookie.SameSite = http.SameSiteLaxMode
		a.Session.Cookie.Secure = strings.HasPrefix(a.BaseURL, "https://")
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	return a
}

// Routes registers the auth endpoints on r under BasePath. The handler r ends
// up in must be wrapped with Session.LoadAndSave.
func (a *Auth) Routes(r *mux.Router) {
	a.EnsureDefaults()
	sub := r.PathPrefix(a.BasePath).Subrouter()
	sub.HandleFunc("/providers", a.handleProviders).Methods(http.MethodGet)
	sub.HandleFunc("/signin/{provider}", a.handleSignIn).Methods(http.MethodGet)
	sub.HandleFunc("/callback/"+CredentialsProviderID, a.handleCredentialsCallback).Methods(http.MethodPost)
	sub.HandleFunc("/callback/{provider}", a.handleOAuthCallback).Methods(http.MethodGet)
	sub.HandleFunc("/session", a.handleGetSession).Methods(http.MethodGet)
	sub.HandleFunc("/session", a.handleUpdateSession).Methods(http.MethodPost)
	sub.HandleFunc("/signout", a.handleSignOut).Methods(http.MethodPost)
	sub.HandleFunc("/error", a.handleError).Methods(http.MethodGet)
}

// Handler returns the auth endpoints wrapped with session loading.
func (a *Auth) Handler() http.Handler {
	r := mux.NewRouter()
	a.Routes(r)
	return a.Session.LoadAndSave(r)
}

// CallbackURL is the redirect URL registered with provider id.
func (a *Auth) CallbackURL(id string) string {
	return a.BaseURL + a.BasePath + "/callback/" + id
}

func (a *Auth) errorURL(code string) string {
	return a.BaseURL + a.BasePath + "/error?error=" + url.QueryEscape(code)
}

func (a *Auth) options(w http.ResponseWriter, r *http.Request) (*AuthOptions, bool) {
	opts, err := a.Options(r.Context())
	if err != nil {
		a.Logger.Error("could not build auth options", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Configuration"})
		return nil, false
	}
	return opts, true
}

type providerEntry struct {
	ProviderInfo
	SigninURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

func (a *Auth) handleProviders(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	out := make(map[string]providerEntry, len(opts.Providers))
	for _, p := range opts.Providers {
		info := p.Info()
		out[info.ID] = providerEntry{
			ProviderInfo: info,
			SigninURL:    a.BaseURL + a.BasePath + "/signin/" + info.ID,
			CallbackURL:  a.CallbackURL(info.ID),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *Auth) handleSignIn(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["provider"]
	p, err := opts.OAuthProvider(id)
	if err != nil {
		http.Error(w, "unknown oauth provider: "+id, http.StatusNotFound)
		return
	}
	if !p.Configured() {
		a.Logger.Warn("signing in with a provider that has no client credentials", "provider", id)
	}

	callbackURL := r.URL.Query().Get("callbackUrl")
	if callbackURL != "" {
		callbackURL = opts.Callbacks.Redirect(callbackURL, a.BaseURL)
	}
	if err := oauth2.Redirect(w, r, p.Provider, a.CallbackURL(id), callbackURL); err != nil {
		a.Logger.Error("could not start oauth sign-in", "provider", id, "err", err)
		http.Error(w, "could not start sign-in", http.StatusInternalServerError)
	}
}

func (a *Auth) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["provider"]
	p, err := opts.OAuthProvider(id)
	if err != nil {
		http.Error(w, "unknown oauth provider: "+id, http.StatusNotFound)
		return
	}

	if err := oauth2.VerifyState(r); err != nil {
		oauth2.ClearCookie(w, oauth2.StateCookieName)
		http.Error(w, "invalid oauth "+id+" state: "+err.Error(), http.StatusBadRequest)
		return
	}
	oauth2.ClearCookie(w, oauth2.StateCookieName)

	if providerErr := r.FormValue("error"); providerErr != "" {
		a.Logger.Info("provider returned an error", "provider", id, "error", providerErr)
		http.Redirect(w, r, a.errorURL("OAuthCallback"), http.StatusFound)
		return
	}

	ctx := r.Context()
	token, err := p.Exchange(ctx, r.FormValue("code"), a.CallbackURL(id))
	if err != nil {
		a.Logger.Info("invalid code exchange", "provider", id, "err", err)
		http.Redirect(w, r, a.errorURL("OAuthCallback"), http.StatusFound)
		return
	}
	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		a.Logger.Info("error fetching profile", "provider", id, "err", err)
		http.Redirect(w, r, a.errorURL("OAuthCallback"), http.StatusFound)
		return
	}

	user := &User{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
		Image: profile.Image,
	}
	account := &Account{
		Provider:          id,
		Type:              AccountTypeOAuth,
		ProviderAccountID: profile.ID,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		TokenType:         token.TokenType,
		ExpiresAt:         token.Expiry,
	}

	if !opts.Callbacks.SignIn(ctx, user, account) {
		http.Redirect(w, r, a.errorURL("AccessDenied"), http.StatusFound)
		return
	}
	if err := a.issueToken(ctx, opts, user, account); err != nil {
		a.Logger.Error("could not issue session token", "provider", id, "err", err)
		http.Redirect(w, r, a.errorURL("Configuration"), http.StatusFound)
		return
	}

	callbackURL := a.BaseURL
	if c, _ := r.Cookie(oauth2.CallbackURLCookieName); c != nil && c.Value != "" {
		callbackURL = c.Value
	}
	oauth2.ClearCookie(w, oauth2.CallbackURLCookieName)
	http.Redirect(w, r, opts.Callbacks.Redirect(callbackURL, a.BaseURL), http.StatusFound)
}

func (a *Auth) handleCredentialsCallback(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	cp, err := opts.CredentialsProvider()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Credentials sign-in is not configured"})
		return
	}

	req, err := parseCredentialsForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx := r.Context()
	user, err := cp.Authorize(ctx, req.Credentials)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrorMessage(err)})
		return
	}

	account := &Account{
		Provider:          CredentialsProviderID,
		Type:              AccountTypeCredentials,
		ProviderAccountID: user.CustomerID,
	}
	if !opts.Callbacks.SignIn(ctx, user, account) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "AccessDenied"})
		return
	}
	if err := a.issueToken(ctx, opts, user, account); err != nil {
		a.Logger.Error("could not issue session token", "provider", CredentialsProviderID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Configuration"})
		return
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = a.BaseURL
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": opts.Callbacks.Redirect(callbackURL, a.BaseURL)})
}

func (a *Auth) handleGetSession(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	session, _ := a.currentSession(r.Context(), opts)
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *Auth) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	token, err := a.currentToken(ctx, opts)
	if err != nil || token == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{})
		return
	}

	var update SessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session update"})
		return
	}

	token = opts.Callbacks.JWT(ctx, JWTParams{Token: token, Trigger: TriggerUpdate, Session: &update})
	if err := a.storeToken(ctx, opts, token); err != nil {
		a.Logger.Error("could not store updated token", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Configuration"})
		return
	}
	writeJSON(w, http.StatusOK, a.project(ctx, opts, token))
}

func (a *Auth) handleSignOut(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.options(w, r)
	if !ok {
		return
	}
	if err := a.Session.Destroy(r.Context()); err != nil {
		a.Logger.Warn("error clearing session", "err", err)
	}
	callbackURL := r.URL.Query().Get("callbackUrl")
	if callbackURL == "" {
		callbackURL = a.BaseURL
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": opts.Callbacks.Redirect(callbackURL, a.BaseURL)})
}

func (a *Auth) handleError(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("error")
	if code == "" {
		code = "Default"
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": code})
}

// issueToken runs the JWT callback for a fresh sign-in and stores the result.
func (a *Auth) issueToken(ctx context.Context, opts *AuthOptions, user *User, account *Account) error {
	token := opts.Callbacks.JWT(ctx, JWTParams{
		Token:   &Token{Name: user.Name, Email: user.Email, Image: user.Image},
		User:    user,
		Account: account,
		Trigger: TriggerSignIn,
	})
	if err := a.Session.RenewToken(ctx); err != nil {
		return err
	}
	return a.storeToken(ctx, opts, token)
}

func (a *Auth) storeToken(ctx context.Context, opts *AuthOptions, token *Token) error {
	signed, err := SignToken(token, opts.Secret, a.Now(), a.SessionMaxAge)
	if err != nil {
		return err
	}
	a.Session.Put(ctx, a.TokenSessionKey, signed)
	return nil
}

// currentToken reads and verifies the stored token, running it through the
// JWT callback. A missing token yields nil, nil.
func (a *Auth) currentToken(ctx context.Context, opts *AuthOptions) (*Token, error) {
	signed := a.Session.GetString(ctx, a.TokenSessionKey)
	if signed == "" {
		return nil, nil
	}
	token, err := ParseToken(signed, opts.Secret, a.Now())
	if err != nil {
		a.Logger.Info("discarding invalid session token", "err", err)
		a.Session.Remove(ctx, a.TokenSessionKey)
		return nil, err
	}
	return opts.Callbacks.JWT(ctx, JWTParams{Token: token}), nil
}

func (a *Auth) currentSession(ctx context.Context, opts *AuthOptions) (*Session, error) {
	token, err := a.currentToken(ctx, opts)
	if err != nil || token == nil {
		return nil, err
	}
	return a.project(ctx, opts, token), nil
}

func (a *Auth) project(ctx context.Context, opts *AuthOptions, token *Token) *Session {
	session := &Session{}
	if token.ExpiresAt != nil {
		session.Expires = token.ExpiresAt.Time
	}
	return opts.Callbacks.Session(ctx, session, token)
}

// CurrentSession returns the session of the request's customer, or nil when
// they are signed out.
func (a *Auth) CurrentSession(r *http.Request) (*Session, error) {
	opts, err := a.Options(r.Context())
	if err != nil {
		return nil, err
	}
	session, err := a.currentSession(r.Context(), opts)
	if errors.Is(err, ErrNoSecret) {
		return nil, err
	}
	return session, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("error writing response", "err", err)
	}
}
