package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines payment persistence
type Repository interface {
	FindByPaymentKey(ctx context.Context, paymentKey string) (*Payment, error)

	// FindByOrderID returns the most recent payment for an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	// FindByOwner lists an owner's payments, newest first
	FindByOwner(ctx context.Context, ownerID string) ([]Payment, error)

	// Upsert inserts p or updates the row holding the same payment_key
	Upsert(ctx context.Context, p *Payment) error
}
