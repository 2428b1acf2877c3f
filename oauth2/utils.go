package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	StateCookieName       = "oauthstate"
	CallbackURLCookieName = "oauthCallbackURL"

	// How long a started sign-in may take before its state cookie lapses
	StateCookieMaxAge = 15 * time.Minute
)

var (
	ErrMissingState  = errors.New("oauth state cookie is missing")
	ErrStateMismatch = errors.New("oauth state does not match")
)

// GenerateState returns a random, URL safe state value.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SetStateCookie generates a state and stores it in a short lived cookie.
func SetStateCookie(w http.ResponseWriter) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(StateCookieMaxAge),
		MaxAge:   int(StateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// VerifyState checks the state query parameter against the state cookie.
func VerifyState(r *http.Request) error {
	oauthState, _ := r.Cookie(StateCookieName)
	if oauthState == nil || oauthState.Value == "" {
		return ErrMissingState
	}
	if r.FormValue("state") != oauthState.Value {
		return ErrStateMismatch
	}
	return nil
}

// ClearCookie expires the named cookie.
func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

// Redirect starts a sign-in with p: it sets the state cookie, remembers
// callbackURL (when non-empty) for after the flow, and sends the browser to
// the provider's authorization page.
func Redirect(w http.ResponseWriter, r *http.Request, p *Provider, redirectURL, callbackURL string) error {
	if callbackURL != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     CallbackURLCookieName,
			Value:    callbackURL,
			Path:     "/",
			MaxAge:   int(StateCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	state, err := SetStateCookie(w)
	if err != nil {
		return err
	}
	http.Redirect(w, r, p.AuthCodeURL(state, redirectURL), http.StatusFound)
	return nil
}
