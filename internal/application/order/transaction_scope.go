package order

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// TransactionScope runs the settlement writes inside one database transaction.
// If fn returns an error the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the running transaction
type TransactionalRepositories interface {
	OrderRepo() order.Repository
	ProductRepo() catalog.ProductRepository
	// EventPublisher writes events to the outbox inside the same transaction
	EventPublisher() shared.EventPublisher
}
