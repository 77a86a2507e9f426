package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ApprovalInput carries a gateway approval
type ApprovalInput struct {
	OrderID        uuid.UUID
	PaymentKey     string
	Amount         decimal.Decimal
	Method         string
	ApprovedAt     time.Time
	TransactionKey string
}

// CancellationInput carries a gateway cancellation or failure
type CancellationInput struct {
	PaymentKey   string
	Reason       string
	CancelAmount decimal.Decimal
	CanceledAt   time.Time
}

// ReconciliationService records gateway outcomes against payments and moves
// the paid order along. Every write is keyed by payment_key so repeated
// callbacks converge on the same row.
type ReconciliationService struct {
	paymentRepo    payment.Repository
	orderRepo      order.Repository
	gateway        payment.Gateway
	idempotency    shared.IdempotencyStore
	claimTTL       time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	paymentRepo payment.Repository,
	orderRepo order.Repository,
	gateway payment.Gateway,
	logger *zap.Logger,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		claimTTL:    DefaultClaimTTL,
		logger:      logger,
	}
}

// WithIdempotencyStore sets the store used to claim callbacks
func (s *ReconciliationService) WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) *ReconciliationService {
	s.idempotency = store
	if ttl > 0 {
		s.claimTTL = ttl
	}
	return s
}

// SetEventPublisher sets the publisher for payment and order events
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordApproval stores a gateway approval and confirms the order. Failure to
// confirm the order is logged only; the payment stays settled.
func (s *ReconciliationService) RecordApproval(ctx context.Context, in ApprovalInput) (*payment.Payment, error) {
	in.PaymentKey = strings.TrimSpace(in.PaymentKey)
	if in.PaymentKey == "" {
		return nil, payment.ErrInvalidPaymentKey
	}
	if in.OrderID == uuid.Nil {
		return nil, payment.ErrInvalidOrderID
	}
	if in.Amount.IsNegative() {
		return nil, payment.ErrInvalidAmount
	}

	o, err := s.orderRepo.FindByID(ctx, in.OrderID)
	if err != nil {
		s.logger.Warn("order unreadable during approval, skipping amount check",
			zap.String("order_id", in.OrderID.String()),
			zap.Error(err),
		)
		o = nil
	}
	if o != nil && !o.TotalAmount.Equal(in.Amount) {
		return nil, payment.ErrAmountMismatch
	}

	p, err := s.findForApproval(ctx, in)
	if err != nil {
		return nil, err
	}
	if p == nil {
		ownerID := ""
		if o != nil {
			ownerID = o.OwnerID
		}
		p, err = payment.NewPayment(in.OrderID, ownerID, in.PaymentKey, in.Amount)
		if err != nil {
			return nil, err
		}
	} else if !p.Amount.Equal(in.Amount) {
		return nil, payment.ErrAmountMismatch
	}

	changed, err := p.Approve(in.Method, in.ApprovedAt, in.TransactionKey)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.paymentRepo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("record payment approval: %w", err)
		}
		s.publish(ctx, p.GetDomainEvents()...)
		p.ClearDomainEvents()
	}

	s.advanceOrder(ctx, o, in.OrderID, order.StatusConfirmed)
	return p, nil
}

// findForApproval looks the payment up by key, then by order. A done payment
// of the order under another key blocks the approval.
func (s *ReconciliationService) findForApproval(ctx context.Context, in ApprovalInput) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByPaymentKey(ctx, in.PaymentKey)
	if err == nil {
		if p.OrderID != in.OrderID {
			return nil, payment.ErrPaymentOrderMismatch
		}
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("find payment: %w", err)
	}

	existing, err := s.paymentRepo.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if existing.Status == payment.StatusDone {
		return nil, payment.ErrPaymentAlreadySettled
	}
	return nil, nil
}

// RecordCancellation cancels the payment holding paymentKey and cancels its
// order. Failure to cancel the order is logged only.
func (s *ReconciliationService) RecordCancellation(ctx context.Context, in CancellationInput) (*payment.Payment, error) {
	in.PaymentKey = strings.TrimSpace(in.PaymentKey)
	if in.PaymentKey == "" {
		return nil, payment.ErrInvalidPaymentKey
	}
	p, err := s.paymentRepo.FindByPaymentKey(ctx, in.PaymentKey)
	if err != nil {
		return nil, err
	}

	changed, err := p.Cancel(in.Reason, in.CancelAmount, in.CanceledAt)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.paymentRepo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("record payment cancellation: %w", err)
		}
		s.publish(ctx, p.GetDomainEvents()...)
		p.ClearDomainEvents()
	}

	s.advanceOrder(ctx, nil, p.OrderID, order.StatusCancelled)
	return p, nil
}

// ConfirmPayment approves a payment with the gateway on behalf of the order owner
func (s *ReconciliationService) ConfirmPayment(ctx context.Context, ownerID string, orderID uuid.UUID, paymentKey string, amount decimal.Decimal) (*payment.Payment, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(ownerID) {
		return nil, shared.ErrNotFound
	}
	return s.confirm(ctx, o, paymentKey, amount)
}

// confirm calls the gateway unless the payment is already done, then
// records the approval
func (s *ReconciliationService) confirm(ctx context.Context, o *order.Order, paymentKey string, amount decimal.Decimal) (*payment.Payment, error) {
	if !o.TotalAmount.Equal(amount) {
		return nil, payment.ErrAmountMismatch
	}
	if existing, err := s.paymentRepo.FindByPaymentKey(ctx, paymentKey); err == nil && existing.Status == payment.StatusDone {
		s.advanceOrder(ctx, o, o.ID, order.StatusConfirmed)
		return existing, nil
	}

	req := &payment.ConfirmRequest{PaymentKey: paymentKey, OrderID: o.ID, Amount: amount}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := s.gateway.Confirm(ctx, req)
	if err != nil {
		s.logger.Error("gateway confirm failed",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_key", paymentKey),
			zap.Error(err),
		)
		return nil, err
	}

	return s.RecordApproval(ctx, ApprovalInput{
		OrderID:        o.ID,
		PaymentKey:     paymentKey,
		Amount:         amount,
		Method:         res.Method,
		ApprovedAt:     res.ApprovedAt,
		TransactionKey: res.PaymentKey,
	})
}

// CancelPayment cancels an owner's payment with the gateway and records it
func (s *ReconciliationService) CancelPayment(ctx context.Context, ownerID, paymentKey, reason string) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByPaymentKey(ctx, paymentKey)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, shared.ErrNotFound
	}
	if p.Status == payment.StatusCanceled {
		return p, nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = payment.DefaultCancelReason
	}

	res, err := s.gateway.Cancel(ctx, &payment.CancelRequest{PaymentKey: paymentKey, CancelReason: reason})
	if err != nil {
		s.logger.Error("gateway cancel failed",
			zap.String("payment_key", paymentKey),
			zap.Error(err),
		)
		return nil, err
	}

	first := res.FirstCancel()
	if first.CancelReason != "" {
		reason = first.CancelReason
	}
	return s.RecordCancellation(ctx, CancellationInput{
		PaymentKey:   paymentKey,
		Reason:       reason,
		CancelAmount: first.CancelAmount,
		CanceledAt:   first.CanceledAt,
	})
}

// GetUserPayments lists an owner's payments, newest first
func (s *ReconciliationService) GetUserPayments(ctx context.Context, ownerID string) ([]payment.Payment, error) {
	payments, err := s.paymentRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return payments, nil
}

// GetPaymentByKey loads an owner's payment; other owners' payments are not found
func (s *ReconciliationService) GetPaymentByKey(ctx context.Context, ownerID, paymentKey string) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByPaymentKey(ctx, paymentKey)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// advanceOrder moves the order to target without failing the caller
func (s *ReconciliationService) advanceOrder(ctx context.Context, o *order.Order, orderID uuid.UUID, target order.Status) {
	log := s.logger.With(zap.String("order_id", orderID.String()), zap.String("target_status", target.String()))
	if o == nil {
		var err error
		o, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			log.Warn("order status not advanced: order unreadable", zap.Error(err))
			return
		}
	}
	prev, err := o.TransitionTo(target)
	if err != nil {
		log.Warn("order status not advanced", zap.String("current_status", o.Status.String()), zap.Error(err))
		return
	}
	if prev == target {
		return
	}
	if err := s.orderRepo.UpdateStatus(ctx, o, prev); err != nil {
		o.Status = prev
		log.Warn("order status not advanced: update failed", zap.Error(err))
		return
	}
	s.publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
}

func (s *ReconciliationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish payment events", zap.Error(err))
	}
}
