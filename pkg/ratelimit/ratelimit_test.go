package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
)

func TestNewFixedWindow_Validation(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(nil, ratelimit.ClassAPI)
		assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)
	})

	t.Run("zero limit", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, ratelimit.Class{Name: "x", Limit: 0, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	})

	t.Run("zero window", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, ratelimit.Class{Name: "x", Limit: 1})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
	})
}

func TestFixedWindow_Budget(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	limiter, err := ratelimit.NewFixedWindow(store, ratelimit.Class{Name: "test", Limit: 3, Window: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		result, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, int64(i+1), result.Count)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, wantRemaining, result.Remaining)
	}

	result, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Positive(t, result.RetryAfter())
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	limiter, err := ratelimit.NewFixedWindow(store, ratelimit.Class{Name: "test", Limit: 1, Window: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestFixedWindow_WindowReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = store.Close() })

	limiter, err := ratelimit.NewFixedWindow(store, ratelimit.Class{Name: "test", Limit: 1, Window: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	// Buckets align to wall-clock minutes, not to the first request.
	assert.Equal(t, time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC), first.ResetAt)

	blocked, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// Crossing the wall-clock boundary opens a fresh bucket.
	now = time.Date(2025, 6, 1, 12, 1, 1, 0, time.UTC)
	fresh, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, int64(1), fresh.Count)
}

func TestResult_RetryAfter_AllowedIsZero(t *testing.T) {
	t.Parallel()

	result := &ratelimit.Result{Allowed: true, ResetAt: time.Now().Add(time.Hour)}
	assert.Zero(t, result.RetryAfter())
}
