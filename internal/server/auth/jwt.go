// Package auth mints and verifies the HS256 access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims are shared by both token kinds. Subject carries the seller id.
// SessionID is set on refresh tokens only and points at the stored session.
type Claims struct {
	jwt.RegisteredClaims
	Kind      string `json:"typ"`
	SessionID string `json:"sid,omitempty"`
}

// TokenIssuer signs access and refresh tokens with separate secrets. It
// holds no mutable state after construction.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue mints a token pair for sellerID. sessionID is embedded in the
// refresh token so the session can be found without a scan.
func (i *TokenIssuer) Issue(sellerID, sessionID string) (models.TokenPair, error) {
	now := i.now()

	access, accessExp, err := i.sign(sellerID, "", kindAccess, now, i.accessTTL, i.accessSecret)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(sellerID, sessionID, kindRefresh, now, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// RefreshTTL is the lifetime given to refresh tokens.
func (i *TokenIssuer) sign(sub, sid, kind string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Kind:      kind,
		SessionID: sid,
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return s, exp.Time, nil
}

// ParseAccess verifies an access token and returns its claims.
func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, kindAccess, i.accessSecret)
}

// ParseRefresh verifies a refresh token. For a token that is correctly
// signed but expired it returns the claims together with
// common.ErrTokenExpired, so the caller can still clean up the session.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, kindRefresh, i.refreshSecret)
}

func (i *TokenIssuer) parse(token, kind string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		if claims.Kind != kind || claims.Subject == "" {
			return nil, common.ErrInvalidToken
		}
		return claims, common.ErrTokenExpired
	case err != nil:
		return nil, common.ErrInvalidToken
	case !t.Valid, claims.Kind != kind, claims.Subject == "":
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
