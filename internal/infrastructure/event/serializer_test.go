package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
)

func TestEventSerializer_RegisteredTypes(t *testing.T) {
	s := NewEventSerializer()
	assert.Equal(t, []string{
		order.EventTypeOrderCancelled,
		order.EventTypeOrderCompensationRequested,
		order.EventTypeOrderConfirmed,
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		payment.EventTypePaymentApproved,
		payment.EventTypePaymentCanceled,
	}, s.RegisteredTypes())
}

func TestEventSerializer_Deserialize(t *testing.T) {
	s := NewEventSerializer()

	t.Run("restores the concrete event", func(t *testing.T) {
		orderID := uuid.New()
		evt := order.NewOrderCompensationRequestedEvent(orderID, "user-7", true, order.StepStockUpdate, "stock gone")

		data, err := s.Serialize(evt)
		require.NoError(t, err)
		got, err := s.Deserialize(evt.EventType(), data)
		require.NoError(t, err)

		restored, ok := got.(*order.OrderCompensationRequestedEvent)
		require.True(t, ok)
		assert.Equal(t, evt.EventID(), restored.EventID())
		assert.Equal(t, "user-7", restored.OwnerID())
		assert.Equal(t, orderID, restored.OrderID)
		assert.True(t, restored.DeleteLines)
		assert.Equal(t, order.StepStockUpdate, restored.FailedStep)
	})

	t.Run("keeps decimal amounts exact", func(t *testing.T) {
		evt := newPlacedEvent("user-1")
		evt.TotalAmount = decimal.RequireFromString("40000.10")

		data, err := s.Serialize(evt)
		require.NoError(t, err)
		got, err := s.Deserialize(order.EventTypeOrderPlaced, data)
		require.NoError(t, err)
		assert.True(t, evt.TotalAmount.Equal(got.(*order.OrderPlacedEvent).TotalAmount))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := s.Deserialize("InvoiceIssued", []byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown event type")
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := s.Deserialize(order.EventTypeOrderPlaced, []byte(`{"order_id":`))
		require.Error(t, err)
	})
}
