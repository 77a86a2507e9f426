package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// List bounds
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// ListFilter is the paging input for ListUserOrders
type ListFilter struct {
	Page      int
	Limit     int
	Status    string
	SortBy    string
	SortOrder string
}

// QueryService serves order reads and status changes
type QueryService struct {
	orderRepo      order.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(orderRepo order.Repository, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{orderRepo: orderRepo, logger: logger}
}

// SetEventPublisher sets the publisher for status change events
func (s *QueryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetOrder loads an order with its lines. It does not check ownership.
// A stored total that drifts from the line sum is logged and returned as is.
func (s *QueryService) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if drift, exceeds := o.TotalDrift(); exceeds {
		s.logger.Warn("order total does not match its lines",
			zap.String("order_id", o.ID.String()),
			zap.String("stored_total", o.TotalAmount.String()),
			zap.String("lines_total", o.LinesTotal().String()),
			zap.String("drift", drift.String()),
		)
	}
	return o, nil
}

// GetOrderForOwner loads an order placed by ownerID. Orders of other owners
// are reported as not found.
func (s *QueryService) GetOrderForOwner(ctx context.Context, ownerID string, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(ownerID) {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

// GetUserOrders lists an owner's orders newest first. Storage failures yield
// an empty list.
func (s *QueryService) GetUserOrders(ctx context.Context, ownerID string) []order.Order {
	orders, err := s.orderRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list user orders", zap.String("owner_id", ownerID), zap.Error(err))
		return []order.Order{}
	}
	if orders == nil {
		return []order.Order{}
	}
	return orders
}

// ListUserOrders pages an owner's orders
func (s *QueryService) ListUserOrders(ctx context.Context, ownerID string, filter ListFilter) (shared.Paginated[order.Order], error) {
	q, err := normalizeFilter(filter)
	if err != nil {
		return shared.Paginated[order.Order]{}, err
	}
	orders, total, err := s.orderRepo.FindPageByOwner(ctx, ownerID, q)
	if err != nil {
		return shared.Paginated[order.Order]{}, err
	}
	return shared.NewPaginated(orders, total, q.Page, q.Limit), nil
}

// UpdateStatus moves an order to target, failing with
// shared.ErrConcurrencyConflict if another writer changed it first
func (s *QueryService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.Status) (*order.Order, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev, err := o.TransitionTo(target)
	if err != nil {
		return nil, err
	}
	if prev == target {
		return o, nil
	}
	if err := s.orderRepo.UpdateStatus(ctx, o, prev); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish order status events",
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		}
	}
	o.ClearDomainEvents()
	return o, nil
}

func normalizeFilter(f ListFilter) (order.Query, error) {
	q := order.Query{
		Page:      f.Page,
		Limit:     f.Limit,
		SortBy:    strings.ToLower(strings.TrimSpace(f.SortBy)),
		SortOrder: strings.ToLower(strings.TrimSpace(f.SortOrder)),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	switch q.SortBy {
	case "":
		q.SortBy = order.SortByCreatedAt
	case order.SortByCreatedAt, order.SortByTotalAmount:
	default:
		return q, shared.NewDomainError("INVALID_SORT_FIELD", "Orders can be sorted by created_at or total_amount")
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = shared.SortDesc
	case shared.SortAsc, shared.SortDesc:
	default:
		return q, shared.NewDomainError("INVALID_SORT_ORDER", "Sort order must be asc or desc")
	}
	if f.Status != "" {
		status := order.Status(strings.ToLower(f.Status))
		if !status.IsValid() {
			return q, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
		}
		q.Status = status
	}
	return q, nil
}
