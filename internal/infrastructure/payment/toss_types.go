package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// tossConfirmRequest is the body of POST /v1/payments/confirm
type tossConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// tossCancelRequest is the body of POST /v1/payments/{paymentKey}/cancel
type tossCancelRequest struct {
	CancelReason string `json:"cancelReason"`
}

// tossPayment is the Payment object returned by confirm and cancel
type tossPayment struct {
	PaymentKey  string          `json:"paymentKey"`
	OrderID     string          `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	ApprovedAt  *time.Time      `json:"approvedAt"`
	Cancels     []tossCancel    `json:"cancels"`
}

// tossCancel is one entry of Payment.cancels
type tossCancel struct {
	CancelReason string          `json:"cancelReason"`
	CanceledAt   time.Time       `json:"canceledAt"`
	CancelAmount decimal.Decimal `json:"cancelAmount"`
}

// tossErrorResponse is the error body of a non-2xx response
type tossErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
