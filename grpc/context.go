// Package grpc carries the storefront session from HTTP handlers to gRPC
// services through request metadata.
package grpc

import (
	"context"

	"github.com/panyam/storeauth"
	"google.golang.org/grpc/metadata"
)

// Default metadata keys for the session user.
const (
	DefaultMetadataKeyUserID = "x-user-id"
	DefaultMetadataKeyEmail  = "x-user-email"
	DefaultMetadataKeyToken  = "x-user-token"
)

// Config holds the metadata key configuration.
type Config struct {
	// Defaults to "x-user-id".
	MetadataKeyUserID string

	// Defaults to "x-user-email".
	MetadataKeyEmail string

	// Key for the backend token. Defaults to "x-user-token".
	MetadataKeyToken string

	// When false the backend token is not forwarded.
	ForwardToken bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyUserID: DefaultMetadataKeyUserID,
		MetadataKeyEmail:  DefaultMetadataKeyEmail,
		MetadataKeyToken:  DefaultMetadataKeyToken,
		ForwardToken:      true,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyUserID == "" {
		c.MetadataKeyUserID = DefaultMetadataKeyUserID
	}
	if c.MetadataKeyEmail == "" {
		c.MetadataKeyEmail = DefaultMetadataKeyEmail
	}
	if c.MetadataKeyToken == "" {
		c.MetadataKeyToken = DefaultMetadataKeyToken
	}
}

// SessionToOutgoingContext adds the session user to outgoing gRPC metadata.
// A nil session leaves ctx unchanged.
func SessionToOutgoingContext(ctx context.Context, session *storeauth.Session) context.Context {
	return SessionToOutgoingContextWithConfig(ctx, session, nil)
}

func SessionToOutgoingContextWithConfig(ctx context.Context, session *storeauth.Session, config *Config) context.Context {
	if session == nil || session.User.ID == "" {
		return ctx
	}
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	kv := []string{config.MetadataKeyUserID, session.User.ID}
	if session.User.Email != "" {
		kv = append(kv, config.MetadataKeyEmail, session.User.Email)
	}
	if config.ForwardToken && session.User.Token != "" {
		kv = append(kv, config.MetadataKeyToken, session.User.Token)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// UserFromContext reads the session user from incoming gRPC metadata. ok is
// false when no user id was sent.
func UserFromContext(ctx context.Context) (user storeauth.SessionUser, ok bool) {
	return UserFromContextWithConfig(ctx, nil)
}

func UserFromContextWithConfig(ctx context.Context, config *Config) (user storeauth.SessionUser, ok bool) {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, found := metadata.FromIncomingContext(ctx)
	if !found {
		return user, false
	}
	user.ID = first(md, config.MetadataKeyUserID)
	user.Email = first(md, config.MetadataKeyEmail)
	user.Token = first(md, config.MetadataKeyToken)
	return user, user.ID != ""
}

// UserIDFromContext extracts the customer id from incoming metadata.
// Returns empty string if no customer is signed in.
func UserIDFromContext(ctx context.Context) string {
	user, _ := UserFromContext(ctx)
	return user.ID
}

// IsAuthenticated returns true if there is a signed-in customer in the context.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := UserFromContext(ctx)
	return ok
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
