package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway is the outbound port to the payment provider
type Gateway interface {
	// Confirm approves a payment the customer authorised in the gateway widget
	Confirm(ctx context.Context, req *ConfirmRequest) (*ConfirmResult, error)

	// Cancel cancels an approved or pending payment
	Cancel(ctx context.Context, req *CancelRequest) (*CancelResult, error)
}

// ConfirmRequest asks the gateway to approve a payment
type ConfirmRequest struct {
	PaymentKey string
	OrderID    uuid.UUID
	Amount     decimal.Decimal
}

// Validate validates the confirm request
func (r *ConfirmRequest) Validate() error {
	if strings.TrimSpace(r.PaymentKey) == "" {
		return ErrInvalidPaymentKey
	}
	if r.OrderID == uuid.Nil {
		return ErrInvalidOrderID
	}
	if !r.Amount.IsPositive() || !r.Amount.Equal(r.Amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return nil
}

// ConfirmResult is the gateway's approval
type ConfirmResult struct {
	PaymentKey string
	OrderID    string
	Amount     decimal.Decimal
	Status     Status
	Method     string
	ApprovedAt time.Time
}

// CancelRequest asks the gateway to cancel a payment
type CancelRequest struct {
	PaymentKey   string
	CancelReason string
}

// Validate validates the cancel request
func (r *CancelRequest) Validate() error {
	if strings.TrimSpace(r.PaymentKey) == "" {
		return ErrInvalidPaymentKey
	}
	return nil
}

// CancelRecord is one cancellation reported by the gateway
type CancelRecord struct {
	CancelReason string
	CanceledAt   time.Time
	CancelAmount decimal.Decimal
}

// CancelResult is the gateway's cancellation
type CancelResult struct {
	PaymentKey string
	OrderID    string
	Status     Status
	Cancels    []CancelRecord
}

// FirstCancel returns the first cancellation record, or a zero record
func (r *CancelResult) FirstCancel() CancelRecord {
	if r == nil || len(r.Cancels) == 0 {
		return CancelRecord{}
	}
	return r.Cancels[0]
}
