package storeauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// credentialsRequest is a parsed credentials sign-in request.
type credentialsRequest struct {
	Credentials
	CallbackURL string
}

// parseCredentialsForm reads email, password and the optional callbackUrl
// from a form or JSON body.
func parseCredentialsForm(r *http.Request) (*credentialsRequest, error) {
	out := &credentialsRequest{}
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("error parsing form")
		}
		out.Email = r.FormValue("email")
		out.Password = r.FormValue("password")
		out.CallbackURL = r.FormValue("callbackUrl")
	} else {
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return nil, fmt.Errorf("invalid post body")
		}
		if v, ok := data["email"].(string); ok {
			out.Email = v
		}
		if v, ok := data["password"].(string); ok {
			out.Password = v
		}
		if v, ok := data["callbackUrl"].(string); ok {
			out.CallbackURL = v
		}
	}

	out.Email = strings.TrimSpace(out.Email)
	if out.Email == "" || out.Password == "" {
		return nil, fmt.Errorf("email and password required")
	}
	return out, nil
}
