package models

import "time"

// Session is one outstanding refresh token. Rotation deletes it and
// creates a new one; logout and expiry delete it.
type Session struct {
	ID               string    `bson:"_id"`
	SellerID         string    `bson:"sellerId"`
	RefreshTokenHash string    `bson:"refreshTokenHash"`
	UserAgent        string    `bson:"userAgent,omitempty"`
	CreatedAt        time.Time `bson:"createdAt"`
	ExpiresAt        time.Time `bson:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenPair is what a successful login, verification or refresh returns.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
