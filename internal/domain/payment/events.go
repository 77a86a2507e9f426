package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypePayment is the aggregate type recorded on payment events
const AggregateTypePayment = "Payment"

const (
	EventTypePaymentApproved = "PaymentApproved"
	EventTypePaymentCanceled = "PaymentCanceled"
)

// PaymentApprovedEvent is raised when a payment reaches done
type PaymentApprovedEvent struct {
	shared.BaseDomainEvent
	PaymentKey string          `json:"payment_key"`
	OrderID    uuid.UUID       `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
}

// NewPaymentApprovedEvent creates a new PaymentApprovedEvent
func NewPaymentApprovedEvent(p *Payment) *PaymentApprovedEvent {
	return &PaymentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApproved, AggregateTypePayment, p.ID, p.OwnerID),
		PaymentKey:      p.PaymentKey,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentCanceledEvent is raised when a payment is canceled
type PaymentCanceledEvent struct {
	shared.BaseDomainEvent
	PaymentKey     string          `json:"payment_key"`
	OrderID        uuid.UUID       `json:"order_id"`
	PreviousStatus Status          `json:"previous_status"`
	CancelAmount   decimal.Decimal `json:"cancel_amount"`
	CancelReason   string          `json:"cancel_reason"`
}

// NewPaymentCanceledEvent creates a new PaymentCanceledEvent
func NewPaymentCanceledEvent(p *Payment, prev Status) *PaymentCanceledEvent {
	return &PaymentCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCanceled, AggregateTypePayment, p.ID, p.OwnerID),
		PaymentKey:      p.PaymentKey,
		OrderID:         p.OrderID,
		PreviousStatus:  prev,
		CancelAmount:    p.CancelAmount,
		CancelReason:    p.CancelReason,
	}
}
