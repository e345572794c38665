package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
)

func TestMemoryStore_IncrementAndGet(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	count, resetAt, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, resetAt.After(time.Now()))

	count, _, err = store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_ExpiredBucketResets(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC)
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	count, _, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	now = now.Add(2 * time.Second) // crosses the 12:01 boundary
	count, resetAt, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC), resetAt)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	const workers = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.IncrementAndGet(ctx, "shared", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, _, err := store.IncrementAndGet(ctx, "shared", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), count)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
