package sellers

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
)

// MemoryRepository keeps sellers in process memory. Records are copied on
// the way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Seller
	byEmail map[string]string
	byHash  map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Seller),
		byEmail: make(map[string]string),
		byHash:  make(map[string]string),
	}
}

func clone(s *models.Seller) *models.Seller {
	c := *s
	if s.Wallet != nil {
		w := *s.Wallet
		if s.Wallet.Mnemonic != nil {
			m := *s.Wallet.Mnemonic
			w.Mnemonic = &m
		}
		c.Wallet = &w
	}
	if s.VerifiedAt != nil {
		v := *s.VerifiedAt
		c.VerifiedAt = &v
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, s *models.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return common.ErrorAlreadyExists
	}
	if _, ok := r.byEmail[s.Email]; ok {
		return common.ErrorAlreadyExists
	}
	if _, ok := r.byHash[s.BusinessNameHash]; ok {
		return common.ErrorAlreadyExists
	}

	r.byID[s.ID] = clone(s)
	r.byEmail[s.Email] = s.ID
	r.byHash[s.BusinessNameHash] = s.ID
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(s), nil
}

func (r *MemoryRepository) findByIndex(index map[string]string, key string) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.Seller, error) {
	return r.findByIndex(r.byEmail, email)
}

func (r *MemoryRepository) FindByBusinessNameHash(_ context.Context, hash string) (*models.Seller, error) {
	return r.findByIndex(r.byHash, hash)
}

func (r *MemoryRepository) Update(_ context.Context, s *models.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[s.ID]
	if !ok {
		return common.ErrorNotFound
	}

	s.UpdatedAt = time.Now().UTC()
	next := clone(s)
	next.Email = cur.Email
	next.BusinessName = cur.BusinessName
	next.BusinessNameHash = cur.BusinessNameHash
	next.Country = cur.Country
	next.CreatedAt = cur.CreatedAt
	r.byID[s.ID] = next
	return nil
}
