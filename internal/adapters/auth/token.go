// Package auth contains the identity adapters: signed session tokens and the
// security context that resolves the acting user of a call.
package auth

import (
	"errors"
	"time"

	"github.com/brianvoe/sjwt"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/clock"
	"github.com/example/mkc/internal/ports/secondary"
)

// DefaultTTL is the lifetime of a session token when none is configured.
const DefaultTTL = 12 * time.Hour

// TokenIssuer implements secondary.TokenIssuer with HMAC-signed JWTs.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

var _ secondary.TokenIssuer = (*TokenIssuer)(nil)

// sessionClaims is the payload carried by a token.
type sessionClaims struct {
	Username string `json:"username"`
}

// NewTokenIssuer creates a token issuer signing with secret.
func NewTokenIssuer(secret string, ttl time.Duration, c clock.Clock) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = clock.Real()
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, clock: c}, nil
}

// Issue returns a signed token for username.
func (i *TokenIssuer) Issue(username string) (string, time.Time, error) {
	claims, err := sjwt.ToClaims(sessionClaims{Username: username})
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	claims.SetIssuedAt(now)
	claims.SetExpiresAt(expiresAt)
	return claims.Generate(i.secret), expiresAt, nil
}

// Verify checks the signature and expiry of token and returns its username.
func (i *TokenIssuer) Verify(token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.CodeAuthentication, "not logged in")
	}
	if !sjwt.Verify(token, i.secret) {
		return "", apperr.New(apperr.CodeAuthentication, "invalid session token")
	}
	claims, err := sjwt.Parse(token)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeAuthentication, err, "invalid session token")
	}
	if err := claims.Validate(); err != nil {
		return "", apperr.Wrap(apperr.CodeAuthentication, err, "session expired, log in again")
	}

	var sc sessionClaims
	if err := claims.ToStruct(&sc); err != nil {
		return "", apperr.Wrap(apperr.CodeAuthentication, err, "invalid session token")
	}
	if sc.Username == "" {
		return "", apperr.New(apperr.CodeAuthentication, "session token has no user")
	}
	return sc.Username, nil
}
