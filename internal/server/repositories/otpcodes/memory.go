package otpcodes

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]models.OtpChallenge
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.OtpChallenge)}
}

func (r *MemoryRepository) Replace(_ context.Context, c *models.OtpChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, cur := range r.items {
		if cur.Email == c.Email && cur.Purpose == c.Purpose {
			delete(r.items, id)
		}
	}
	r.items[c.ID] = *c
	return nil
}

func (r *MemoryRepository) Latest(_ context.Context, email string, purpose models.Purpose) (*models.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *models.OtpChallenge
	for _, cur := range r.items {
		if cur.Email != email || cur.Purpose != purpose {
			continue
		}
		if latest == nil || cur.CreatedAt.After(latest.CreatedAt) ||
			(cur.CreatedAt.Equal(latest.CreatedAt) && cur.ID > latest.ID) {
			c := cur
			latest = &c
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest, nil
}

func (r *MemoryRepository) Consume(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *MemoryRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, cur := range r.items {
		if cur.Expired(now) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
