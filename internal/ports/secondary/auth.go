package secondary

import "time"

// TokenIssuer issues and verifies session tokens carrying a username.
type TokenIssuer interface {
	// Issue returns a signed token for username and its expiry.
	Issue(username string) (token string, expiresAt time.Time, err error)

	// Verify checks the token signature and expiry and returns the username.
	Verify(token string) (string, error)
}
