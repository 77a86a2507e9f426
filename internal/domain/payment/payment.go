package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status mirrors the payment states reported by the gateway
type Status string

const (
	StatusReady             Status = "ready"
	StatusInProgress        Status = "in_progress"
	StatusWaitingForDeposit Status = "waiting_for_deposit"
	StatusDone              Status = "done"
	StatusCanceled          Status = "canceled"
	StatusPartialCanceled   Status = "partial_canceled"
	StatusExpired           Status = "expired"
	StatusAborted           Status = "aborted"
)

// DefaultCancelReason is recorded when the gateway supplies no message
const DefaultCancelReason = "payment failed"

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusReady, StatusInProgress, StatusWaitingForDeposit, StatusDone,
		StatusCanceled, StatusPartialCanceled, StatusExpired, StatusAborted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsPending reports whether the payment still awaits approval
func (s Status) IsPending() bool {
	return s == StatusReady || s == StatusInProgress || s == StatusWaitingForDeposit
}

// Payment records the gateway outcome for an order
type Payment struct {
	shared.AggregateRoot
	OrderID            uuid.UUID
	OwnerID            string
	PaymentKey         string
	Amount             decimal.Decimal
	Status             Status
	Method             string
	ApprovedAt         *time.Time
	CanceledAt         *time.Time
	CancelReason       string
	CancelAmount       decimal.Decimal
	LastTransactionKey string
}

// NewPayment creates a payment in the ready state
func NewPayment(orderID uuid.UUID, ownerID, paymentKey string, amount decimal.Decimal) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, ErrInvalidOrderID
	}
	paymentKey = strings.TrimSpace(paymentKey)
	if paymentKey == "" {
		return nil, ErrInvalidPaymentKey
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &Payment{
		AggregateRoot: shared.NewAggregateRoot(),
		OrderID:       orderID,
		OwnerID:       ownerID,
		PaymentKey:    paymentKey,
		Amount:        amount,
		Status:        StatusReady,
		CancelAmount:  decimal.Zero,
	}, nil
}

// Approve moves a pending payment to done. Approving an already done payment
// is a no-op and reports changed=false.
func (p *Payment) Approve(method string, approvedAt time.Time, transactionKey string) (bool, error) {
	if p.Status == StatusDone {
		return false, nil
	}
	if !p.Status.IsPending() {
		return false, newInvalidTransitionError(p.Status, StatusDone)
	}
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}
	if transactionKey == "" {
		transactionKey = p.PaymentKey
	}
	p.Status = StatusDone
	p.Method = method
	p.ApprovedAt = &approvedAt
	p.LastTransactionKey = transactionKey
	p.Touch()
	p.AddDomainEvent(NewPaymentApprovedEvent(p))
	return true, nil
}

// Cancel moves the payment to canceled. A zero cancelAmount cancels the full
// amount. Cancelling twice is a no-op.
func (p *Payment) Cancel(reason string, cancelAmount decimal.Decimal, canceledAt time.Time) (bool, error) {
	if p.Status == StatusCanceled {
		return false, nil
	}
	if p.Status == StatusExpired || p.Status == StatusAborted {
		return false, newInvalidTransitionError(p.Status, StatusCanceled)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	if cancelAmount.IsZero() || cancelAmount.IsNegative() {
		cancelAmount = p.Amount
	}
	if canceledAt.IsZero() {
		canceledAt = time.Now()
	}
	prev := p.Status
	p.Status = StatusCanceled
	p.CancelReason = reason
	p.CancelAmount = cancelAmount
	p.CanceledAt = &canceledAt
	p.Touch()
	p.AddDomainEvent(NewPaymentCanceledEvent(p, prev))
	return true, nil
}

// IsOwnedBy reports whether ownerID paid for the order
func (p *Payment) IsOwnedBy(ownerID string) bool {
	return ownerID != "" && p.OwnerID == ownerID
}
