package storeauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type sessionContextKey struct{}

// Middleware makes the signed-in customer's session available to handlers.
// It must run inside Auth.Session.LoadAndSave.
type Middleware struct {
	Auth *Auth

	// Where EnsureSession sends signed-out visitors. When empty they get a 401.
	LoginURL string

	// Query parameter carrying the page to return to after login
	CallbackURLParam string
}

/**
 * Ensures that config values have reasonable defaults.
 */
func (m *Middleware) EnsureReasonableDefaults() {
	if m.CallbackURLParam == "" {
		m.CallbackURLParam = "callbackUrl"
	}
}

// SessionFromContext returns the session placed on ctx by the middleware.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

/**
 * Loads the session of the current request, if any, so downstream handlers
 * can read it with SessionFromContext.
 *
 * Note this does not perform any redirects if there is no session.  To also
 * enforce one exists use EnsureSession.
 */
func (m *Middleware) ExtractSession(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.session(r)
		if session != nil {
			r = r.WithContext(WithSession(r.Context(), session))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) EnsureSession(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.session(r)
		if session == nil {
			if m.LoginURL == "" {
				http.Error(w, "Login Required", http.StatusUnauthorized)
				return
			}
			original := r.URL.Path
			if r.URL.RawQuery != "" {
				original += "?" + r.URL.RawQuery
			}
			encoded := strings.ReplaceAll(url.QueryEscape(original), "+", "%20")
			http.Redirect(w, r, fmt.Sprintf("%s?%s=%s", m.LoginURL, m.CallbackURLParam, encoded), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (m *Middleware) session(r *http.Request) *Session {
	if s := SessionFromContext(r.Context()); s != nil {
		return s
	}
	session, err := m.Auth.CurrentSession(r)
	if err != nil {
		slog.Warn("could not load session", "path", r.URL.Path, "err", err)
		return nil
	}
	return session
}
