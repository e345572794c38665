package billing_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/modules/billing"
)

func TestMemoryStoreInsertPaymentIdempotent(t *testing.T) {
	t.Parallel()

	store := billing.NewMemoryStore()
	ctx := context.Background()

	// Concurrent inserts of the same gateway payment id must yield exactly
	// one winner, mirroring the unique constraint the Postgres store leans on.
	const workers = 20
	var inserted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			ok, err := store.InsertPayment(ctx, &billing.Payment{
				UserID:            "user-1",
				OrderID:           "order-1",
				RazorpayPaymentID: "pay_contested",
				Amount:            49_900,
				Currency:          "INR",
				Status:            "captured",
				CreatedAt:         time.Now(),
			})
			if err == nil && ok {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), inserted.Load())
}

func TestMemoryStoreEnsureProfile(t *testing.T) {
	t.Parallel()

	store := billing.NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetProfile(ctx, "user-1")
	require.ErrorIs(t, err, billing.ErrProfileNotFound)

	p, err := store.EnsureProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)

	// Mutating the returned copy must not leak into the store.
	p.HasUsedTrial = true
	stored, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, stored.HasUsedTrial)
}
