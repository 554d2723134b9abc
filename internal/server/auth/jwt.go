// Package auth mints and verifies the signed, time-limited tokens handed to
// clients: short-lived access tokens and longer-lived refresh tokens, each
// signed with its own HMAC secret.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Claims are the registered JWT claims; the user ID travels in Subject and
// every token gets a unique ID so two tokens issued in the same second differ.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer holds the secrets and lifetimes for both token kinds.
// It is immutable and safe for concurrent use.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		accessTTL:     accessTTL,
		refreshSecret: []byte(refreshSecret),
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) IssueAccess(userID string) (string, error) {
	return t.issue(userID, t.accessSecret, t.accessTTL)
}

func (t *TokenIssuer) IssueRefresh(userID string) (string, error) {
	return t.issue(userID, t.refreshSecret, t.refreshTTL)
}

// VerifyAccess returns the user ID carried by an access token.
// Errors are common.ErrTokenExpired or common.ErrInvalidToken.
func (t *TokenIssuer) VerifyAccess(token string) (string, error) {
	return t.verify(token, t.accessSecret)
}

// VerifyRefresh returns the user ID carried by a refresh token.
// Errors are common.ErrTokenExpired or common.ErrInvalidToken.
func (t *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return t.verify(token, t.refreshSecret)
}

func (t *TokenIssuer) issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	return token.SignedString(secret)
}

func (t *TokenIssuer) verify(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
