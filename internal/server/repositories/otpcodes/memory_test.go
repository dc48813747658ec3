package otpcodes

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_ReplaceKeepsOnlyNewest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := sampleChallenge()
	require.NoError(t, repo.Replace(ctx, first))

	second := sampleChallenge()
	second.ID = "01HZX3M4N5P6Q7R8S9T0V1W2X4"
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Replace(ctx, second))

	other := sampleChallenge()
	other.ID = "login-1"
	other.Purpose = models.PurposeLogin
	require.NoError(t, repo.Replace(ctx, other))

	got, err := repo.Latest(ctx, first.Email, models.PurposeSignup)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	ok, err := repo.Consume(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, ok, "superseded challenge must already be gone")

	got, err = repo.Latest(ctx, first.Email, models.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, "login-1", got.ID)
}

func TestMemoryRepository_LatestMissing(t *testing.T) {
	_, err := NewMemoryRepository().Latest(context.Background(), "x@y.z", models.PurposeSignup)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ConsumeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := sampleChallenge()
	require.NoError(t, repo.Replace(ctx, c))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Consume(ctx, c.ID)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestMemoryRepository_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	live := sampleChallenge()
	dead := sampleChallenge()
	dead.ID = "dead"
	dead.Email = "b@acme.test"
	dead.ExpiresAt = live.CreatedAt.Add(-time.Minute)

	require.NoError(t, repo.Replace(ctx, live))
	require.NoError(t, repo.Replace(ctx, dead))

	n, err := repo.PurgeExpired(ctx, live.CreatedAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.Latest(ctx, "b@acme.test", models.PurposeSignup)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
