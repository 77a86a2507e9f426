package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 2, 13, 12, 0, 0, 0, time.UTC)}
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		claimed, err := store.MarkProcessed(ctx, "payment:approve:pay_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, "payment:approve:pay_1", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		store, clock := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		claimed, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("released claim can be taken again", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k"))

		claimed, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		store, _ := newTestStore(t)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := store.MarkProcessed(ctx, "race", time.Minute); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	processed, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(2 * time.Minute)
	processed, err = store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	clock.Advance(2 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
