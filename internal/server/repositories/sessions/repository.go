// Package sessions stores refresh-token sessions. Each record stands for
// exactly one outstanding refresh token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkup/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error

	// FindByID returns common.ErrorNotFound when the session is gone.
	FindByID(ctx context.Context, id string) (*models.Session, error)

	// Rotate deletes oldID and stores next in its place. It reports false,
	// and stores nothing, when oldID was already gone.
	Rotate(ctx context.Context, oldID string, next *models.Session) (bool, error)

	// Delete removes the session and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// PurgeExpired removes sessions whose expiry is at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
