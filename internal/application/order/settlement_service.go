package order

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettlementService converts an owner's cart into a persisted order.
//
// Without a TransactionScope the writes run as a saga: order row, then lines,
// then stock decrements, each committed on its own. A failed step deletes
// what the earlier steps wrote. Deletes that fail are queued as
// OrderCompensationRequested events on the outbox and retried by
// CompensationHandler. With a TransactionScope the three writes share one
// transaction and no compensation is needed.
type SettlementService struct {
	cartRepo       cart.Repository
	productRepo    catalog.ProductRepository
	orderRepo      order.Repository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	metrics        SettlementMetrics
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService in saga mode
func NewSettlementService(
	cartRepo cart.Repository,
	productRepo catalog.ProductRepository,
	orderRepo order.Repository,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		metrics:     noopMetrics{},
		logger:      logger,
	}
}

// WithTransactionScope switches settlement to a single transaction
func (s *SettlementService) WithTransactionScope(scope TransactionScope) *SettlementService {
	s.txScope = scope
	return s
}

// SetEventPublisher sets the publisher used for OrderPlaced and compensation events
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the settlement metrics sink
func (s *SettlementService) SetMetrics(m SettlementMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// SettleOrder validates stock for every cart line, snapshots product names
// and prices, persists the order and its lines, decrements stock and clears
// the cart. It returns the order without lines, or the first failure.
func (s *SettlementService) SettleOrder(ctx context.Context, ownerID string, address order.ShippingAddress, note string) (*order.Order, error) {
	start := time.Now()
	o, err := s.settle(ctx, ownerID, address, note)
	if err != nil {
		s.metrics.ObserveSettlement(OutcomeFailed, string(shared.KindOf(err)), time.Since(start))
		return nil, err
	}
	s.metrics.ObserveSettlement(OutcomeSuccess, "", time.Since(start))
	return o, nil
}

func (s *SettlementService) settle(ctx context.Context, ownerID string, address order.ShippingAddress, note string) (*order.Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, order.ErrInvalidOwner
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(note)) > order.MaxNoteLength {
		return nil, shared.NewDomainError("INVALID_ORDER_NOTE", "Order note cannot exceed 500 characters")
	}

	lines, err := s.cartRepo.FindByOwnerWithProducts(ctx, ownerID)
	if err != nil {
		return nil, order.NewSettlementError(order.StepCartRead, uuid.Nil, err)
	}
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	drafts := make([]order.LineDraft, 0, len(lines))
	for _, l := range lines {
		if !l.Product.CanFulfil(l.Quantity) {
			return nil, &order.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.Product.Name,
				Available:   l.Product.AvailableStock(),
				Requested:   l.Quantity,
			}
		}
		drafts = append(drafts, order.LineDraft{
			ProductID:   l.ProductID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       l.Product.Price,
		})
	}

	o, err := order.NewOrder(ownerID, address, note, drafts)
	if err != nil {
		return nil, err
	}
	if err := o.VerifyTotal(); err != nil {
		return nil, err
	}

	placed := order.NewOrderPlacedEvent(o)
	if s.txScope != nil {
		err = s.persistInTransaction(ctx, o, placed)
	} else {
		err = s.persistWithCompensation(ctx, o)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearByOwner(ctx, ownerID); err != nil {
		s.logger.Warn("failed to clear cart after settlement",
			zap.String("owner_id", ownerID),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}

	if s.txScope == nil {
		s.publish(ctx, placed)
	}

	s.logger.Info("order settled",
		zap.String("order_id", o.ID.String()),
		zap.String("owner_id", ownerID),
		zap.Int("lines", len(o.Lines)),
		zap.String("total_amount", o.TotalAmount.String()),
	)
	return o.WithoutLines(), nil
}

func (s *SettlementService) persistWithCompensation(ctx context.Context, o *order.Order) error {
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return order.NewSettlementError(order.StepOrderPersist, o.ID, err)
	}

	if err := s.orderRepo.CreateLines(ctx, o.Lines); err != nil {
		s.compensate(ctx, o, false, order.StepOrderLinePersist, err)
		return order.NewSettlementError(order.StepOrderLinePersist, o.ID, err)
	}

	applied := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if err := s.productRepo.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			s.compensate(ctx, o, true, order.StepStockUpdate, err)
			if len(applied) > 0 {
				s.logger.Warn("stock decrements kept after failed settlement",
					zap.String("order_id", o.ID.String()),
					zap.Strings("product_ids", applied),
				)
			}
			serr := order.NewSettlementError(order.StepStockUpdate, o.ID, err)
			serr.ProductID = l.ProductID
			return serr
		}
		applied = append(applied, l.ProductID.String())
	}
	return nil
}

func (s *SettlementService) persistInTransaction(ctx context.Context, o *order.Order, placed shared.DomainEvent) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().Create(ctx, o); err != nil {
			return order.NewSettlementError(order.StepOrderPersist, o.ID, err)
		}
		if err := repos.OrderRepo().CreateLines(ctx, o.Lines); err != nil {
			return order.NewSettlementError(order.StepOrderLinePersist, o.ID, err)
		}
		for _, l := range o.Lines {
			if err := repos.ProductRepo().DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				serr := order.NewSettlementError(order.StepStockUpdate, o.ID, err)
				serr.ProductID = l.ProductID
				return serr
			}
		}
		if pub := repos.EventPublisher(); pub != nil {
			if err := pub.Publish(ctx, placed); err != nil {
				return order.NewSettlementError(order.StepOrderPersist, o.ID, err)
			}
		}
		return nil
	})
}

// compensate deletes what the saga already wrote. Its own failures are
// logged and queued, never returned.
func (s *SettlementService) compensate(ctx context.Context, o *order.Order, deleteLines bool, step order.Step, cause error) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(
		zap.String("order_id", o.ID.String()),
		zap.String("failed_step", string(step)),
		zap.NamedError("cause", cause),
	)

	var failures []error
	if deleteLines {
		if err := s.orderRepo.DeleteLines(ctx, o.ID); err != nil {
			failures = append(failures, &order.CompensationError{OrderID: o.ID, Action: "delete_order_lines", Err: err})
		}
	}
	if err := s.orderRepo.Delete(ctx, o.ID); err != nil {
		failures = append(failures, &order.CompensationError{OrderID: o.ID, Action: "delete_order", Err: err})
	}

	if len(failures) == 0 {
		s.metrics.IncCompensation(OutcomeSuccess)
		log.Info("settlement compensated")
		return
	}

	s.metrics.IncCompensation(OutcomeFailed)
	compErr := errors.Join(failures...)
	log.Error("settlement compensation failed", zap.Error(compErr))

	if s.eventPublisher == nil {
		log.Error("no outbox configured, partial order left for manual cleanup")
		return
	}
	evt := order.NewOrderCompensationRequestedEvent(o.ID, o.OwnerID, deleteLines, step, compErr.Error())
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		log.Error("failed to enqueue compensation retry", zap.Error(err))
	}
}

func (s *SettlementService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events", zap.Error(err))
	}
}
