package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type recorded on order events
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced                = "OrderPlaced"
	EventTypeOrderConfirmed             = "OrderConfirmed"
	EventTypeOrderCancelled             = "OrderCancelled"
	EventTypeOrderStatusChanged         = "OrderStatusChanged"
	EventTypeOrderCompensationRequested = "OrderCompensationRequested"
)

// LineInfo represents line information carried by events
type LineInfo struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderPlacedEvent is raised once an order has been settled from a cart
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []LineInfo      `json:"lines"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	lines := make([]LineInfo, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = LineInfo{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
		}
	}
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		TotalAmount:     o.TotalAmount,
		Lines:           lines,
	}
}

// OrderConfirmedEvent is raised when payment approval confirms an order
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent
func NewOrderConfirmedEvent(o *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderConfirmed, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderCancelledEvent is raised when an order moves to cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	PreviousStatus Status    `json:"previous_status"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, prev Status) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		PreviousStatus:  prev,
	}
}

// OrderStatusChangedEvent covers fulfilment moves (shipped, delivered)
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	PreviousStatus Status    `json:"previous_status"`
	Status         Status    `json:"status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, prev Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		PreviousStatus:  prev,
		Status:          o.Status,
	}
}

// OrderCompensationRequestedEvent asks for the idempotent removal of a
// partially settled order after an in-process rollback failed
type OrderCompensationRequestedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	DeleteLines bool      `json:"delete_lines"`
	FailedStep  Step      `json:"failed_step"`
	Reason      string    `json:"reason"`
}

// NewOrderCompensationRequestedEvent creates a new OrderCompensationRequestedEvent
func NewOrderCompensationRequestedEvent(orderID uuid.UUID, ownerID string, deleteLines bool, step Step, reason string) *OrderCompensationRequestedEvent {
	return &OrderCompensationRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompensationRequested, AggregateTypeOrder, orderID, ownerID),
		OrderID:         orderID,
		DeleteLines:     deleteLines,
		FailedStep:      step,
		Reason:          reason,
	}
}
