package order

import (
	"context"

	"github.com/google/uuid"
)

// Sortable order columns
const (
	SortByCreatedAt   = "created_at"
	SortByTotalAmount = "total_amount"
)

// Query pages an owner's orders
type Query struct {
	Page      int
	Limit     int
	Status    Status
	SortBy    string
	SortOrder string
}

// Repository defines order persistence. Orders and their lines are written
// by separate calls so that settlement can compensate each step.
type Repository interface {
	// Create inserts the order row without its lines
	Create(ctx context.Context, o *Order) error

	// CreateLines inserts the given lines
	CreateLines(ctx context.Context, lines []Line) error

	// FindByID loads an order with lines ordered by created_at ascending
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOwner lists an owner's orders (without lines), newest first
	FindByOwner(ctx context.Context, ownerID string) ([]Order, error)

	// FindPageByOwner pages an owner's orders with their lines
	FindPageByOwner(ctx context.Context, ownerID string, q Query) ([]Order, int64, error)

	// UpdateStatus writes o.Status only if the stored status is still from.
	// Returns shared.ErrConcurrencyConflict when another writer moved it.
	UpdateStatus(ctx context.Context, o *Order, from Status) error

	// Delete removes an order row; deleting a missing order is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteLines removes all lines of an order; idempotent
	DeleteLines(ctx context.Context, orderID uuid.UUID) error
}
