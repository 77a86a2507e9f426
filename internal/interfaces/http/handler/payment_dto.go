package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/payment"
)

// ConfirmPaymentRequest approves a payment the client completed with the gateway widget
type ConfirmPaymentRequest struct {
	PaymentKey string `json:"payment_key" binding:"required,max=200" example:"tgen_20240101abcd"`
	OrderID    string `json:"order_id" binding:"required,uuid"`
	Amount     int64  `json:"amount" binding:"required,gt=0" example:"40000"`
}

// CancelPaymentRequest cancels an approved payment
type CancelPaymentRequest struct {
	Reason string `json:"reason" binding:"max=200" example:"Changed my mind"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	PaymentKey   string          `json:"payment_key"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"40000"`
	Status       string          `json:"status" example:"done"`
	Method       string          `json:"method,omitempty" example:"card"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	CanceledAt   *time.Time      `json:"canceled_at,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	CancelAmount decimal.Decimal `json:"cancel_amount" swaggertype:"string"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		OrderID:      p.OrderID,
		PaymentKey:   p.PaymentKey,
		Amount:       p.Amount,
		Status:       p.Status.String(),
		Method:       p.Method,
		ApprovedAt:   p.ApprovedAt,
		CanceledAt:   p.CanceledAt,
		CancelReason: p.CancelReason,
		CancelAmount: p.CancelAmount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of domain payments
func ToPaymentResponses(payments []payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}
