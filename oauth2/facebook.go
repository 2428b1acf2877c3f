package oauth2

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const FacebookUserInfoURL = "https://graph.facebook.com/me"

// Facebook creates the Facebook provider.
func Facebook(clientId, clientSecret string) *Provider {
	p := NewProvider("facebook", "Facebook", clientId, clientSecret, facebook.Endpoint,
		[]string{"email", "public_profile"}, facebookProfile)
	p.UserInfoURL = FacebookUserInfoURL
	return p
}

func facebookProfile(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error) {
	u, err := url.Parse(p.UserInfoURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("fields", "id,name,email,picture")
	u.RawQuery = q.Encode()

	var userInfo map[string]any
	if err := getJSON(ctx, p.Client(ctx, token), u.String(), &userInfo); err != nil {
		return nil, err
	}

	// picture comes back as {"data": {"url": "..."}}
	var image string
	if picture, ok := userInfo["picture"].(map[string]any); ok {
		if data, ok := picture["data"].(map[string]any); ok {
			image = stringValue(data["url"])
		}
	}
	return &Profile{
		ID:    stringValue(userInfo["id"]),
		Name:  stringValue(userInfo["name"]),
		Email: stringValue(userInfo["email"]),
		Image: image,
		Raw:   userInfo,
	}, nil
}
