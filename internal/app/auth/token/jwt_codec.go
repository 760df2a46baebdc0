package token

import (
	"errors"
	"time"

	customErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	domtoken "github.com/filevault/auth-service/internal/domain/auth/token"
	"github.com/filevault/auth-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTCodec signs HS256 tokens with two independent secret/TTL pairs so
// that a refresh token can never be replayed where an access token is
// expected: the wrong-class signature simply does not verify.
type JWTCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTCodec(cfg *config.Config) (*JWTCodec, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("access token secret is not set")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("refresh token secret is not set")
	}
	return &JWTCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

func (c *JWTCodec) SignAccess(accountID, sessionID string) (string, time.Time, error) {
	return c.sign(accountID, sessionID, c.accessSecret, c.accessTTL)
}

func (c *JWTCodec) SignRefresh(accountID, sessionID string) (string, time.Time, error) {
	return c.sign(accountID, sessionID, c.refreshSecret, c.refreshTTL)
}

func (c *JWTCodec) VerifyAccess(raw string) (domtoken.Claims, error) {
	return c.verify(raw, c.accessSecret)
}

func (c *JWTCodec) VerifyRefresh(raw string) (domtoken.Claims, error) {
	return c.verify(raw, c.refreshSecret)
}

func (c *JWTCodec) sign(accountID, sessionID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	claims := domtoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		SessionID: sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (c *JWTCodec) verify(raw string, secret []byte) (domtoken.Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &domtoken.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt())

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domtoken.Claims{}, customErrors.ErrExpiredToken
	case err != nil:
		return domtoken.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*domtoken.Claims)
	if !ok || !parsed.Valid {
		return domtoken.Claims{}, customErrors.ErrInvalidToken
	}
	return *claims, nil
}
