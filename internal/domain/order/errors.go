package order

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Validation errors
var (
	ErrInvalidOwner  = shared.NewDomainError("INVALID_OWNER", "Owner ID is required")
	ErrEmptyCart     = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrTotalMismatch = shared.NewDomainError("TOTAL_MISMATCH", "Order total does not match its lines")
)

// Persistence step errors, matched with errors.Is against a *SettlementError
var (
	ErrCartRead         = shared.NewDomainError("CART_READ_FAILED", "Failed to read cart")
	ErrOrderPersist     = shared.NewDomainError("ORDER_PERSIST_FAILED", "Failed to create order")
	ErrOrderLinePersist = shared.NewDomainError("ORDER_LINE_PERSIST_FAILED", "Failed to create order items")
	ErrStockUpdate      = shared.NewDomainError("STOCK_UPDATE_FAILED", "Failed to update product stock")
)

// InsufficientStockError names the product that cannot be fulfilled
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// Unwrap lets errors.Is match shared.ErrInsufficientStock
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// Kind implements the error taxonomy
func (e *InsufficientStockError) Kind() shared.ErrorKind {
	return shared.KindValidation
}

// Step names a write in the settlement sequence
type Step string

const (
	StepCartRead         Step = "cart_read"
	StepOrderPersist     Step = "order_persist"
	StepOrderLinePersist Step = "order_line_persist"
	StepStockUpdate      Step = "stock_update"
)

// SettlementError reports the first failed persistence step of a settlement
type SettlementError struct {
	Step      Step
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Err       error
}

// NewSettlementError wraps cause as a failure of step
func NewSettlementError(step Step, orderID uuid.UUID, cause error) *SettlementError {
	return &SettlementError{Step: step, OrderID: orderID, Err: cause}
}

func (e *SettlementError) Error() string {
	if e.ProductID != uuid.Nil {
		return fmt.Sprintf("settle order: %s (product %s): %v", e.Step, e.ProductID, e.Err)
	}
	return fmt.Sprintf("settle order: %s: %v", e.Step, e.Err)
}

// Unwrap exposes both the step sentinel and the underlying cause
func (e *SettlementError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

// Kind implements the error taxonomy
func (e *SettlementError) Kind() shared.ErrorKind {
	return shared.KindPersistence
}

func (e *SettlementError) sentinel() error {
	switch e.Step {
	case StepCartRead:
		return ErrCartRead
	case StepOrderPersist:
		return ErrOrderPersist
	case StepOrderLinePersist:
		return ErrOrderLinePersist
	default:
		return ErrStockUpdate
	}
}

// CompensationError describes a rollback step that itself failed. It is
// logged and queued for retry, never returned to callers of SettleOrder.
type CompensationError struct {
	OrderID uuid.UUID
	Action  string
	Err     error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensate order %s: %s: %v", e.OrderID, e.Action, e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}

// Kind implements the error taxonomy
func (e *CompensationError) Kind() shared.ErrorKind {
	return shared.KindCompensation
}

// NewInvalidTransitionError reports a disallowed status change
func NewInvalidTransitionError(from, to Status) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
