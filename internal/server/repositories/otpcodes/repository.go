// Package otpcodes stores issued one-time code challenges.
package otpcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkup/internal/server/models"
)

// Repository persists OTP challenges. Consumption is a conditional delete
// so that a code can be used at most once even under concurrent attempts.
type Repository interface {
	// Replace stores c and removes every earlier challenge for the same
	// email and purpose.
	Replace(ctx context.Context, c *models.OtpChallenge) error

	// Latest returns the most recently created challenge for email and
	// purpose, expired or not, or common.ErrorNotFound.
	Latest(ctx context.Context, email string, purpose models.Purpose) (*models.OtpChallenge, error)

	// Consume deletes the challenge with id and reports whether this call
	// was the one that removed it.
	Consume(ctx context.Context, id string) (bool, error)

	// PurgeExpired removes challenges whose expiry is at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
