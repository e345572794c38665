package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_IncrementAndGet(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewRedisStore(newTestRedis(t))
	ctx := context.Background()

	count, resetAt, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, resetAt.After(time.Now()))

	count, _, err = store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRedisStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewRedisStore(newTestRedis(t))
	ctx := context.Background()

	_, _, err := store.IncrementAndGet(ctx, "a", time.Minute)
	require.NoError(t, err)

	count, _, err := store.IncrementAndGet(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStore_WindowBucketsAligned(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 45, 0, time.UTC)
	store := ratelimit.NewRedisStore(newTestRedis(t),
		ratelimit.WithRedisClock(func() time.Time { return now }))
	ctx := context.Background()

	count, resetAt, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC), resetAt)

	// A new wall-clock minute means a new bucket key and a fresh count.
	now = time.Date(2025, 6, 1, 12, 1, 5, 0, time.UTC)
	count, resetAt, err = store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC), resetAt)
}

func TestRedisStore_UnavailableStoreErrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := ratelimit.NewRedisStore(client)

	mr.Close()

	_, _, err := store.IncrementAndGet(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
