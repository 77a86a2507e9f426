package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

type panicHandler struct{}

func (panicHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panicHandler) EventTypes() []string                             { return nil }

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to typed and wildcard handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		placed := newTestHandler(order.EventTypeOrderPlaced)
		approved := newTestHandler(payment.EventTypePaymentApproved)
		all := newTestHandler()
		bus.Subscribe(placed)
		bus.Subscribe(approved)
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(context.Background(), newPlacedEvent("user-1")))

		assert.Equal(t, 1, placed.count())
		assert.Equal(t, 0, approved.count())
		assert.Equal(t, 1, all.count())
	})

	t.Run("explicit types override handler types", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newTestHandler(payment.EventTypePaymentApproved)
		bus.Subscribe(h, order.EventTypeOrderPlaced)

		require.NoError(t, bus.Publish(context.Background(), newPlacedEvent("user-1")))
		assert.Equal(t, 1, h.count())
	})

	t.Run("returns handler errors after running every handler", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))
		failing := newTestHandler()
		failing.setError(errors.New("relay down"))
		after := newTestHandler()
		bus.Subscribe(failing)
		bus.Subscribe(after)

		err := bus.Publish(context.Background(), newPlacedEvent("user-1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "relay down")
		assert.Equal(t, 1, after.count())
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "user-1", logs.All()[0].ContextMap()["owner_id"])
	})

	t.Run("recovers handler panics", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		bus.Subscribe(panicHandler{})

		err := bus.Publish(context.Background(), newPlacedEvent("user-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("unsubscribed handlers stop receiving", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newTestHandler()
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(context.Background(), newPlacedEvent("user-1")))
		assert.Equal(t, 0, h.count())
	})
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler()
	bus.Subscribe(h)

	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, newPlacedEvent("user-1")), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newPlacedEvent("user-1")))
	assert.Equal(t, 1, h.count())
}
