// Package sellers declares the seller identity store and its PostgreSQL,
// MongoDB and in-memory implementations.
package sellers

import (
	"context"

	"github.com/dmitrijs2005/linkup/internal/server/models"
)

// Repository persists seller records. Sellers are never hard-deleted.
type Repository interface {
	// Create inserts s. It returns common.ErrorAlreadyExists when the email
	// or business-name hash is already taken.
	Create(ctx context.Context, s *models.Seller) error

	// FindByID, FindByEmail and FindByBusinessNameHash return
	// common.ErrorNotFound when nothing matches.
	FindByID(ctx context.Context, id string) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByBusinessNameHash(ctx context.Context, hash string) (*models.Seller, error)

	// Update overwrites the mutable fields of the seller with s.ID:
	// password hash, wallet and verifiedAt. UpdatedAt is refreshed.
	Update(ctx context.Context, s *models.Seller) error
}
