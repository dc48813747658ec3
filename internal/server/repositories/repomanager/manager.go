// Package repomanager vends the repositories for the configured storage
// backend and prepares that backend for use.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/linkup/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	Sellers() sellers.Repository
	OtpCodes() otpcodes.Repository
	Sessions() sessions.Repository

	// Init runs migrations or creates indexes, depending on the backend.
	Init(ctx context.Context) error
	Close(ctx context.Context) error
}
