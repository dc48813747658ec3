package repomanager

import (
	"context"

	"github.com/dmitrijs2005/linkup/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sessions"
)

// MemoryRepositoryManager keeps everything in process memory. It is meant
// for local development and tests; nothing survives a restart.
type MemoryRepositoryManager struct {
	sellers  *sellers.MemoryRepository
	otpCodes *otpcodes.MemoryRepository
	sessions *sessions.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		sellers:  sellers.NewMemoryRepository(),
		otpCodes: otpcodes.NewMemoryRepository(),
		sessions: sessions.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Sellers() sellers.Repository   { return m.sellers }
func (m *MemoryRepositoryManager) OtpCodes() otpcodes.Repository { return m.otpCodes }
func (m *MemoryRepositoryManager) Sessions() sessions.Repository { return m.sessions }

func (m *MemoryRepositoryManager) Init(context.Context) error  { return nil }
func (m *MemoryRepositoryManager) Close(context.Context) error { return nil }
