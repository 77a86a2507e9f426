package persistence

import (
	"context"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TxPublisherFactory returns an event publisher that writes through tx
type TxPublisherFactory func(tx *gorm.DB) shared.EventPublisher

// GormTransactionScope runs settlement writes in one GORM transaction.
// If fn returns an error the transaction is rolled back.
type GormTransactionScope struct {
	db         *gorm.DB
	publishers TxPublisherFactory
}

// NewGormTransactionScope creates a new GormTransactionScope. publishers may
// be nil, in which case events raised inside the scope are dropped.
func NewGormTransactionScope(db *gorm.DB, publishers TxPublisherFactory) *GormTransactionScope {
	return &GormTransactionScope{db: db, publishers: publishers}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, publishers: s.publishers})
	})
}

type gormTransactionalRepositories struct {
	tx         *gorm.DB
	publishers TxPublisherFactory
}

func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) EventPublisher() shared.EventPublisher {
	if r.publishers == nil {
		return discardPublisher{}
	}
	return r.publishers(r.tx)
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

var (
	_ apporder.TransactionScope          = (*GormTransactionScope)(nil)
	_ apporder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
