package payment

import (
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// Payment validation errors
var (
	ErrInvalidOrderID        = shared.NewDomainError("INVALID_ORDER_ID", "Order ID is required")
	ErrInvalidPaymentKey     = shared.NewDomainError("INVALID_PAYMENT_KEY", "Payment key is required")
	ErrInvalidAmount         = shared.NewDomainError("INVALID_AMOUNT", "Payment amount is invalid")
	ErrAmountMismatch        = shared.NewDomainError("AMOUNT_MISMATCH", "Payment amount does not match the order total")
	ErrPaymentAlreadySettled = shared.NewDomainError("PAYMENT_ALREADY_SETTLED", "Order already has a settled payment")
	ErrPaymentOrderMismatch  = shared.NewDomainError("PAYMENT_ORDER_MISMATCH", "Payment key belongs to another order")
)

// Gateway errors
var (
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
)

// GatewayError is a failed confirm or cancel call. StatusCode is zero when no
// response was received.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

// NewGatewayError builds the error for a non-2xx gateway response
func NewGatewayError(statusCode int, code, message string) *GatewayError {
	return &GatewayError{StatusCode: statusCode, Code: code, Message: message, Err: ErrGatewayRequestFailed}
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("payment gateway: %v", e.cause())
	}
	return fmt.Sprintf("payment gateway: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.cause()
}

// Kind implements the error taxonomy
func (e *GatewayError) Kind() shared.ErrorKind {
	return shared.KindGateway
}

func (e *GatewayError) cause() error {
	if e.Err == nil {
		return ErrGatewayRequestFailed
	}
	return e.Err
}

func newInvalidTransitionError(from, to Status) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot change payment status from %s to %s", from, to))
}
