package storeauth

import (
	"context"
	"sync"

	"github.com/panyam/storeauth/settings"
)

// fakeCustomers is an in-memory CustomerService.
type fakeCustomers struct {
	mu sync.Mutex

	loginUser *User
	loginErr  error
	signup    *OAuthSignup
	signupErr error

	loginCalls  int
	signupCalls int
	lastLogin   Credentials
	lastSignup  User
}

func (f *fakeCustomers) LoginCustomer(ctx context.Context, creds Credentials) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.lastLogin = creds
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginUser == nil {
		return nil, nil
	}
	u := *f.loginUser
	return &u, nil
}

func (f *fakeCustomers) SignUpWithOauthProvider(ctx context.Context, user *User) (*OAuthSignup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupCalls++
	if user != nil {
		f.lastSignup = *user
	}
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return f.signup, nil
}

func (f *fakeCustomers) calls() (login, signup int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.signupCalls
}

func (f *fakeCustomers) signedUp() User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSignup
}

// staticSettings serves a fixed store setting and counts fetches.
type staticSettings struct {
	mu      sync.Mutex
	setting *settings.StoreSetting
	err     error
	fetches int
}

func (s *staticSettings) GetStoreSetting(ctx context.Context) (*settings.StoreSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.setting, nil
}

func fullSettings() *settings.StoreSetting {
	return &settings.StoreSetting{
		GoogleID:       "g-id",
		GoogleSecret:   "g-secret",
		GithubID:       "gh-id",
		GithubSecret:   "gh-secret",
		FacebookID:     "fb-id",
		FacebookSecret: "fb-secret",
	}
}

func strPtr(s string) *string { return &s }
