// Package settings fetches the storefront's store settings from the backend
// and keeps a short-lived, process-wide copy of them.
//
// The store setting record carries, among many other fields, the OAuth client
// credentials for each identity provider the storefront offers. Only those
// fields are typed here; the rest of the record is kept as raw JSON so callers
// can still reach it without this package having to track the backend schema.
package settings

import (
	"context"
	"encoding/json"
)

// StoreSetting is the subset of the backend store setting record used for
// authentication. Missing fields decode as empty strings.
type StoreSetting struct {
	GoogleID       string `json:"google_id"`
	GoogleSecret   string `json:"google_secret"`
	GithubID       string `json:"github_id"`
	GithubSecret   string `json:"github_secret"`
	FacebookID     string `json:"facebook_id"`
	FacebookSecret string `json:"facebook_secret"`

	// Raw holds the complete record as returned by the backend.
	Raw map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the full record in Raw.
// Non-string provider fields (null, numbers) are treated as absent.
func (s *StoreSetting) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = StoreSetting{Raw: raw}
	for key, dst := range map[string]*string{
		"google_id":       &s.GoogleID,
		"google_secret":   &s.GoogleSecret,
		"github_id":       &s.GithubID,
		"github_secret":   &s.GithubSecret,
		"facebook_id":     &s.FacebookID,
		"facebook_secret": &s.FacebookSecret,
	} {
		if v, ok := raw[key]; ok {
			var str string
			if json.Unmarshal(v, &str) == nil {
				*dst = str
			}
		}
	}
	return nil
}

// Fetcher loads the current store settings from wherever they live.
type Fetcher interface {
	GetStoreSetting(ctx context.Context) (*StoreSetting, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (*StoreSetting, error)

func (f FetcherFunc) GetStoreSetting(ctx context.Context) (*StoreSetting, error) {
	return f(ctx)
}
