package domain

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStats(t *testing.T) StatsRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStatsRepository(rdb)
}

func TestStats_IncrementCreated(t *testing.T) {
	stats := newTestStats(t)
	ctx := context.Background()

	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeText, ""))
	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeText, ""))
	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeNeogram, ""))

	got, err := stats.Get(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.TotalSecretsCount)
	assert.Equal(t, int64(2), got.SecretsCount.Text)
	assert.Equal(t, int64(1), got.SecretsCount.Neogram)
	assert.Equal(t, int64(0), got.SecretsCount.URL)
	assert.Equal(t, int64(0), got.TotalSecretsViewCount)
}

func TestStats_IncrementViewed(t *testing.T) {
	stats := newTestStats(t)
	ctx := context.Background()

	require.NoError(t, stats.IncrementViewed(ctx, SecretTypeURL, ""))

	got, err := stats.Get(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.TotalSecretsViewCount)
	assert.Equal(t, int64(1), got.SecretsViewCount.URL)
	assert.Equal(t, int64(0), got.TotalSecretsCount)
}

func TestStats_PerAccountCounters(t *testing.T) {
	stats := newTestStats(t)
	ctx := context.Background()

	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeText, "acc-1"))
	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeText, "acc-2"))
	require.NoError(t, stats.IncrementCreated(ctx, SecretTypeText, ""))

	global, err := stats.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), global.TotalSecretsCount, "every create counts globally")

	acc1, err := stats.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc1.TotalSecretsCount)

	acc2, err := stats.Get(ctx, "acc-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc2.TotalSecretsCount)
}

func TestStats_GetEmpty(t *testing.T) {
	stats := newTestStats(t)

	got, err := stats.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, got.TotalSecretsCount)
	assert.Zero(t, got.TotalSecretsViewCount)
}

func TestStats_ConcurrentIncrementsLoseNothing(t *testing.T) {
	stats := newTestStats(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = stats.IncrementCreated(ctx, SecretTypeText, "acc-1")
			}
		}()
	}
	wg.Wait()

	got, err := stats.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), got.TotalSecretsCount)
	assert.Equal(t, int64(workers*perWorker), got.SecretsCount.Text)

	acc, err := stats.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), acc.TotalSecretsCount)
}
