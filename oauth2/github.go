package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	GithubUserInfoURL = "https://api.github.com/user"
	GithubEmailsURL   = "https://api.github.com/user/emails"
)

// GitHub creates the GitHub provider.
func GitHub(clientId, clientSecret string) *Provider {
	p := NewProvider("github", "GitHub", clientId, clientSecret, github.Endpoint,
		[]string{"read:user", "user:email"}, githubProfile)
	p.UserInfoURL = GithubUserInfoURL
	return p
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func githubProfile(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error) {
	client := p.Client(ctx, token)

	var userInfo map[string]any
	if err := getJSON(ctx, client, p.UserInfoURL, &userInfo); err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:    stringValue(userInfo["id"]),
		Name:  stringValue(userInfo["name"]),
		Email: stringValue(userInfo["email"]),
		Image: stringValue(userInfo["avatar_url"]),
		Raw:   userInfo,
	}
	if profile.Name == "" {
		profile.Name = stringValue(userInfo["login"])
	}

	// Users with a private email address only expose it through the emails API
	if profile.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, githubEmailsURL(p.UserInfoURL), &emails); err != nil {
			slog.Info("could not load github emails", "err", err)
		} else {
			for _, e := range emails {
				if e.Primary {
					profile.Email = e.Email
					break
				}
			}
		}
	}
	return profile, nil
}

// githubEmailsURL derives the emails endpoint from the user endpoint so test
// servers only need to override UserInfoURL.
func githubEmailsURL(userInfoURL string) string {
	if userInfoURL == GithubUserInfoURL {
		return GithubEmailsURL
	}
	return userInfoURL + "/emails"
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	response, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("user info request returned HTTP %d", response.StatusCode)
	}
	if err := json.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("failed to parse user info: %w", err)
	}
	return nil
}

// stringValue renders JSON scalars as strings. Numeric ids decode as float64.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
