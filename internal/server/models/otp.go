package models

import "time"

// Purpose namespaces one-time codes. A code never validates for a purpose
// other than the one it was issued for.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposeLogin         Purpose = "login"
	PurposePasswordReset Purpose = "password-reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeSignup, PurposeLogin, PurposePasswordReset:
		return true
	}
	return false
}

// OtpChallenge is one issued code, stored as a bcrypt hash.
type OtpChallenge struct {
	ID        string    `bson:"_id"`
	SubjectID string    `bson:"subjectId"`
	Email     string    `bson:"email"`
	Purpose   Purpose   `bson:"purpose"`
	CodeHash  string    `bson:"codeHash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (c *OtpChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
