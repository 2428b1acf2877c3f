package oauth2

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleAPIEndpoint is the base URL of the Google userinfo API.
const GoogleAPIEndpoint = "https://www.googleapis.com/"

// Google creates the Google provider. For Google, UserInfoURL is the base API
// endpoint the userinfo service is called on.
func Google(clientId, clientSecret string) *Provider {
	p := NewProvider("google", "Google", clientId, clientSecret, google.Endpoint,
		[]string{"openid", "email", "profile"}, googleProfile)
	p.UserInfoURL = GoogleAPIEndpoint
	return p
}

func googleProfile(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error) {
	svc, err := googleoauth2.NewService(ctx,
		option.WithHTTPClient(p.Client(ctx, token)),
		option.WithEndpoint(p.UserInfoURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	raw := map[string]any{
		"id":      info.Id,
		"email":   info.Email,
		"name":    info.Name,
		"picture": info.Picture,
	}
	if info.VerifiedEmail != nil {
		raw["verified_email"] = *info.VerifiedEmail
	}
	return &Profile{
		ID:    info.Id,
		Name:  info.Name,
		Email: info.Email,
		Image: info.Picture,
		Raw:   raw,
	}, nil
}
