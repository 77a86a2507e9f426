package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultClaimTTL is how long a success callback keeps its claim
const DefaultClaimTTL = 10 * time.Minute

// Callback redirect error codes
const (
	CallbackErrMissingParams = "missing_params"
	CallbackErrInvalidAmount = "invalid_amount"
	CallbackErrInvalidOrder  = "invalid_order"
	CallbackErrPaymentFailed = "payment_failed"
)

// CallbackError is a rejected success callback; Code goes into the redirect
type CallbackError struct {
	Code string
}

func (e *CallbackError) Error() string {
	return "payment callback: " + e.Code
}

// Kind implements the error taxonomy
func (e *CallbackError) Kind() shared.ErrorKind {
	return shared.KindValidation
}

// ErrCallbackInProgress is returned while another request holds the claim
var ErrCallbackInProgress = shared.NewDomainError("CALLBACK_IN_PROGRESS", "Payment approval is already being processed")

// SuccessCallback is the parsed query of the gateway success redirect
type SuccessCallback struct {
	OrderID    uuid.UUID
	PaymentKey string
	Amount     decimal.Decimal
}

// ParseSuccessCallback validates the raw success redirect parameters
func ParseSuccessCallback(orderID, paymentKey, amount string) (SuccessCallback, error) {
	orderID = strings.TrimSpace(orderID)
	paymentKey = strings.TrimSpace(paymentKey)
	amount = strings.TrimSpace(amount)
	if orderID == "" || paymentKey == "" || amount == "" {
		return SuccessCallback{}, &CallbackError{Code: CallbackErrMissingParams}
	}
	n, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return SuccessCallback{}, &CallbackError{Code: CallbackErrInvalidAmount}
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return SuccessCallback{}, &CallbackError{Code: CallbackErrInvalidOrder}
	}
	return SuccessCallback{OrderID: id, PaymentKey: paymentKey, Amount: decimal.NewFromInt(n)}, nil
}

// ApprovalClaimKey is the idempotency key claimed by a success callback
func ApprovalClaimKey(paymentKey string) string {
	return "payment:approve:" + paymentKey
}

// HandleSuccessCallback confirms the payment with the gateway and records the
// approval. A reload of the redirect URL returns the recorded payment without
// calling the gateway again.
func (s *ReconciliationService) HandleSuccessCallback(ctx context.Context, cb SuccessCallback) (*payment.Payment, error) {
	key := ApprovalClaimKey(cb.PaymentKey)
	claimed := false
	if s.idempotency != nil {
		ok, err := s.idempotency.MarkProcessed(ctx, key, s.claimTTL)
		switch {
		case err != nil:
			s.logger.Warn("idempotency store unavailable, relying on payment_key upsert",
				zap.String("payment_key", cb.PaymentKey),
				zap.Error(err),
			)
		case !ok:
			if p, err := s.paymentRepo.FindByPaymentKey(ctx, cb.PaymentKey); err == nil && p.Status == payment.StatusDone {
				return p, nil
			}
			return nil, ErrCallbackInProgress
		default:
			claimed = true
		}
	}

	o, err := s.orderRepo.FindByID(ctx, cb.OrderID)
	if err == nil {
		var p *payment.Payment
		p, err = s.confirm(ctx, o, cb.PaymentKey, cb.Amount)
		if err == nil {
			return p, nil
		}
	}

	if claimed {
		if rerr := s.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.logger.Warn("failed to release callback claim", zap.String("key", key), zap.Error(rerr))
		}
	}
	return nil, err
}

// HandleFailCallback records a cancellation for a failed payment. Without a
// payment key there is nothing to record.
func (s *ReconciliationService) HandleFailCallback(ctx context.Context, paymentKey, code, message string) error {
	paymentKey = strings.TrimSpace(paymentKey)
	if paymentKey == "" {
		return nil
	}
	reason := strings.TrimSpace(message)
	if reason == "" {
		reason = payment.DefaultCancelReason
	}

	_, err := s.RecordCancellation(ctx, CancellationInput{PaymentKey: paymentKey, Reason: reason})
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Info("fail callback for unknown payment",
			zap.String("payment_key", paymentKey),
			zap.String("code", code),
		)
		return nil
	}
	return err
}
