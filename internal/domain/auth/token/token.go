package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims bind a bearer credential to the session that issued it. Subject
// carries the account id, SessionID the session row the token is only
// meaningful against while that row exists.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Codec signs and verifies the two token classes with independent
// secrets and TTLs. Verifying a token of one class against the other
// must fail, never silently succeed.
type Codec interface {
	SignAccess(accountID, sessionID string) (token string, exp time.Time, err error)
	SignRefresh(accountID, sessionID string) (token string, exp time.Time, err error)
	VerifyAccess(raw string) (Claims, error)
	VerifyRefresh(raw string) (Claims, error)
}
