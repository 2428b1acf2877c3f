package storeauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func googleAccount() *Account {
	return &Account{Provider: "google", Type: AccountTypeOAuth, ProviderAccountID: "g-1"}
}

func TestSignIn_OAuthLinksCustomer(t *testing.T) {
	customers := &fakeCustomers{signup: &OAuthSignup{
		Token: "abc", CustomerID: "1", Address: "1 Road", Phone: "555", Image: "http://img",
	}}
	cb := NewCallbacks(customers, nil)

	user := &User{ID: "g-1", Name: "Gee", Email: "g@example.com"}
	require.True(t, cb.SignIn(context.Background(), user, googleAccount()))

	assert.Equal(t, "abc", user.Token)
	assert.Equal(t, "1", user.CustomerID)
	assert.Equal(t, "1 Road", user.Address)
	assert.Equal(t, "555", user.Phone)
	assert.Equal(t, "http://img", user.Image)
	assert.Equal(t, "g@example.com", customers.lastSignup.Email)
}

func TestSignIn_OAuthNoToken(t *testing.T) {
	for name, res := range map[string]*OAuthSignup{"nil": nil, "empty": {CustomerID: "1"}} {
		t.Run(name, func(t *testing.T) {
			cb := NewCallbacks(&fakeCustomers{signup: res}, nil)
			user := &User{Email: "g@example.com"}
			assert.False(t, cb.SignIn(context.Background(), user, googleAccount()))
			assert.Empty(t, user.Token)
		})
	}
}

func TestSignIn_OAuthBackendError(t *testing.T) {
	cb := NewCallbacks(&fakeCustomers{signupErr: errors.New("unreachable")}, nil)
	assert.False(t, cb.SignIn(context.Background(), &User{Email: "g@example.com"}, googleAccount()))
}

func TestSignIn_CredentialsSkipsBackend(t *testing.T) {
	customers := &fakeCustomers{}
	cb := NewCallbacks(customers, nil)

	account := &Account{Provider: CredentialsProviderID, Type: AccountTypeCredentials}
	assert.True(t, cb.SignIn(context.Background(), &User{CustomerID: "42"}, account))

	_, signups := customers.calls()
	assert.Equal(t, 0, signups)
}

func TestSignIn_MissingInputs(t *testing.T) {
	cb := NewCallbacks(&fakeCustomers{signup: &OAuthSignup{Token: "abc"}}, nil)
	assert.False(t, cb.SignIn(context.Background(), &User{}, nil))
	assert.False(t, cb.SignIn(context.Background(), nil, googleAccount()))
}

func TestEnrichToken_SignIn(t *testing.T) {
	user := &User{
		ID: "g-1", CustomerID: "1", Name: "Gee", Email: "g@example.com",
		Address: "1 Road", Phone: "555", Image: "http://img", Token: "abc",
	}
	token := EnrichToken(context.Background(), JWTParams{
		Token:   &Token{Name: "stale"},
		User:    user,
		Account: googleAccount(),
		Trigger: TriggerSignIn,
	})

	assert.Equal(t, "1", token.ID)
	assert.Equal(t, "Gee", token.Name)
	assert.Equal(t, "g@example.com", token.Email)
	assert.Equal(t, "1 Road", token.Address)
	assert.Equal(t, "555", token.Phone)
	assert.Equal(t, "http://img", token.Image)
	assert.Equal(t, "abc", token.Token)
}

func TestEnrichToken_PassThrough(t *testing.T) {
	in := &Token{ID: "1", Name: "Gee", Token: "abc"}
	out := EnrichToken(context.Background(), JWTParams{Token: in})
	assert.Equal(t, &Token{ID: "1", Name: "Gee", Token: "abc"}, out)

	assert.NotNil(t, EnrichToken(context.Background(), JWTParams{}))
}

func TestEnrichToken_Update(t *testing.T) {
	in := &Token{ID: "1", Name: "Gee", Email: "g@example.com", Phone: "555"}
	out := EnrichToken(context.Background(), JWTParams{
		Token:   in,
		Trigger: TriggerUpdate,
		Session: &SessionUpdate{User: &UserUpdate{Name: strPtr("New Name"), Phone: strPtr("")}},
	})

	assert.Equal(t, "1", out.ID)
	assert.Equal(t, "New Name", out.Name)
	assert.Equal(t, "g@example.com", out.Email)
	assert.Equal(t, "", out.Phone)
}

func TestEnrichToken_UpdateWithoutSession(t *testing.T) {
	out := EnrichToken(context.Background(), JWTParams{
		Token:   &Token{Name: "Gee"},
		Trigger: TriggerUpdate,
	})
	assert.Equal(t, "Gee", out.Name)
}

func TestProjectSession(t *testing.T) {
	token := &Token{
		ID: "1", Name: "Gee", Email: "g@example.com",
		Address: "1 Road", Phone: "555", Image: "http://img", Token: "abc",
	}
	session := ProjectSession(context.Background(), &Session{}, token)
	assert.Equal(t, SessionUser{
		ID: "1", Name: "Gee", Email: "g@example.com",
		Address: "1 Road", Phone: "555", Image: "http://img", Token: "abc",
	}, session.User)

	assert.Equal(t, SessionUser{}, ProjectSession(context.Background(), nil, nil).User)
}

func TestSafeRedirect(t *testing.T) {
	const base = "https://site.com"
	tests := []struct {
		url, base, want string
	}{
		{"https://site.com/cart", base, "https://site.com/cart"},
		{"https://site.com", base, "https://site.com"},
		{"https://site.com?x=1", base, "https://site.com?x=1"},
		{"https://evil.com", base, "https://site.com/user/dashboard"},
		{"https://site.com.evil.com/x", base, "https://site.com/user/dashboard"},
		{"/cart", base, "https://site.com/user/dashboard"},
		{"https://site.com/cart", base + "/", "https://site.com/cart"},
		{"https://evil.com", base + "/", "https://site.com/user/dashboard"},
		{"https://site.com/cart", "", "/user/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.url+"|"+tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirect(tt.url, tt.base))
		})
	}
}
