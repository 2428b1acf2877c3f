package storeauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetime of a session token
const DefaultSessionMaxAge = 30 * 24 * time.Hour

var ErrNoSecret = errors.New("no signing secret configured")

// SignToken signs token as an HS256 JWT, stamping issued-at and expiry.
func SignToken(token *Token, secret string, now time.Time, maxAge time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	token.Subject = token.ID
	token.IssuedAt = jwt.NewNumericDate(now)
	token.ExpiresAt = jwt.NewNumericDate(now.Add(maxAge))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token signed by SignToken.
func ParseToken(tokenString, secret string, now time.Time) (*Token, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	token := &Token{}
	parsed, err := jwt.ParseWithClaims(tokenString, token, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return token, nil
}
