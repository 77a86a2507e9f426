package event

import (
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
)

// RegisterStorefrontEvents registers every event the outbox may hold
func RegisterStorefrontEvents(s *EventSerializer) {
	s.Register(order.EventTypeOrderPlaced, &order.OrderPlacedEvent{})
	s.Register(order.EventTypeOrderConfirmed, &order.OrderConfirmedEvent{})
	s.Register(order.EventTypeOrderCancelled, &order.OrderCancelledEvent{})
	s.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
	s.Register(order.EventTypeOrderCompensationRequested, &order.OrderCompensationRequestedEvent{})

	s.Register(payment.EventTypePaymentApproved, &payment.PaymentApprovedEvent{})
	s.Register(payment.EventTypePaymentCanceled, &payment.PaymentCanceledEvent{})
}
