package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("redis disabled", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		store, err := NewIdempotencyStoreFactory(unreachable, WithLogger(zap.New(core))).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails when fallback is off", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
