package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedStore() (*InMemoryIdempotencyStore, *time.Time) {
	now := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)
	store := NewInMemoryIdempotencyStore()
	store.now = func() time.Time { return now }
	return store, &now
}

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	ctx := context.Background()
	key := "payment:tenant-a:caixa-1-0001"

	t.Run("a live claim blocks the retry", func(t *testing.T) {
		store, _ := newClockedStore()

		ok, err := store.Claim(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, _ = store.Claim(ctx, "payment:tenant-b:caixa-1-0001", time.Hour)
		assert.True(t, ok, "keys are independent")
	})

	t.Run("an expired claim can be taken again", func(t *testing.T) {
		store, now := newClockedStore()

		ok, _ := store.Claim(ctx, key, time.Hour)
		require.True(t, ok)

		*now = now.Add(time.Hour)
		ok, err := store.Claim(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("a released claim can be retried", func(t *testing.T) {
		store, _ := newClockedStore()

		ok, _ := store.Claim(ctx, key, time.Hour)
		require.True(t, ok)
		require.NoError(t, store.Release(ctx, key))

		ok, err := store.Claim(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_SweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	store, now := newClockedStore()

	for i := 0; i < sweepEvery-1; i++ {
		_, _ = store.Claim(ctx, fmt.Sprintf("old-%d", i), time.Minute)
	}
	assert.Equal(t, sweepEvery-1, store.Len())

	*now = now.Add(2 * time.Minute)
	_, _ = store.Claim(ctx, "fresh", time.Minute)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.Claim(ctx, "same-key", time.Hour); err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
}
