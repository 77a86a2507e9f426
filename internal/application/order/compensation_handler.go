package order

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompensationHandler retries the deletes of a partially settled order.
// Both deletes are idempotent, so redelivery is safe; a returned error
// leaves the outbox entry for another attempt.
type CompensationHandler struct {
	orderRepo order.Repository
	logger    *zap.Logger
}

// NewCompensationHandler creates a new CompensationHandler
func NewCompensationHandler(orderRepo order.Repository, logger *zap.Logger) *CompensationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompensationHandler{orderRepo: orderRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *CompensationHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCompensationRequested}
}

// Handle processes an OrderCompensationRequestedEvent
func (h *CompensationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*order.OrderCompensationRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderCompensationRequested, event.EventType())
	}

	if evt.DeleteLines {
		if err := h.orderRepo.DeleteLines(ctx, evt.OrderID); err != nil {
			return &order.CompensationError{OrderID: evt.OrderID, Action: "delete_order_lines", Err: err}
		}
	}
	if err := h.orderRepo.Delete(ctx, evt.OrderID); err != nil {
		return &order.CompensationError{OrderID: evt.OrderID, Action: "delete_order", Err: err}
	}

	h.logger.Info("partial order removed",
		zap.String("order_id", evt.OrderID.String()),
		zap.String("failed_step", string(evt.FailedStep)),
	)
	return nil
}

var _ shared.EventHandler = (*CompensationHandler)(nil)
