package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testAddress = order.ShippingAddress{
	Name:          "Kim",
	Phone:         "010-1234-5678",
	PostalCode:    "06236",
	Address:       "Teheran-ro 1, Seoul",
	DetailAddress: "Apt 101",
}

func addToCart(t *testing.T, db *gorm.DB, ownerID string, productID uuid.UUID, quantity int) {
	t.Helper()
	line, err := cart.NewLine(ownerID, productID, quantity)
	require.NoError(t, err)
	_, err = NewGormCartRepository(db).AddOrIncrement(context.Background(), line)
	require.NoError(t, err)
}

func newSettlement(db *gorm.DB) *apporder.SettlementService {
	return apporder.NewSettlementService(
		NewGormCartRepository(db),
		NewGormProductRepository(db),
		NewGormOrderRepository(db),
		zap.NewNop(),
	)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestSettlement_Tee(t *testing.T) {
	for _, transactional := range []bool{false, true} {
		name := "saga"
		if transactional {
			name = "transactional"
		}
		t.Run(name, func(t *testing.T) {
			db := newSQLiteDB(t)
			ctx := context.Background()
			tee := seedProduct(t, db, "Tee", "apparel", 20000, 3, true)
			addToCart(t, db, "owner-1", tee.ID, 2)

			svc := newSettlement(db)
			if transactional {
				svc.WithTransactionScope(NewGormTransactionScope(db, nil))
			}

			placed, err := svc.SettleOrder(ctx, "owner-1", testAddress, "")
			require.NoError(t, err)
			assert.True(t, placed.TotalAmount.Equal(decimal.NewFromInt(40000)))
			assert.Empty(t, placed.Lines)

			stored, err := NewGormOrderRepository(db).FindByID(ctx, placed.ID)
			require.NoError(t, err)
			assert.Equal(t, order.StatusPending, stored.Status)
			require.Len(t, stored.Lines, 1)
			assert.Equal(t, "Tee", stored.Lines[0].ProductName)
			assert.Equal(t, 2, stored.Lines[0].Quantity)
			assert.True(t, stored.Lines[0].Price.Equal(decimal.NewFromInt(20000)))

			assert.Equal(t, 1, stockOf(t, db, tee.ID))

			lines, err := NewGormCartRepository(db).FindByOwnerWithProducts(ctx, "owner-1")
			require.NoError(t, err)
			assert.Empty(t, lines)
		})
	}
}

func TestSettlement_Cap(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	capProduct := seedProduct(t, db, "Cap", "apparel", 15000, 1, true)
	addToCart(t, db, "owner-1", capProduct.ID, 5)

	_, err := newSettlement(db).SettleOrder(ctx, "owner-1", testAddress, "")

	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Cap", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	assert.Zero(t, countRows(t, db, "orders"))
	assert.Equal(t, 1, stockOf(t, db, capProduct.ID))

	lines, err := NewGormCartRepository(db).FindByOwnerWithProducts(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

// failingLinesRepository fails CreateLines after the order row is written
type failingLinesRepository struct {
	*GormOrderRepository
}

func (r failingLinesRepository) CreateLines(context.Context, []order.Line) error {
	return errors.New("order_items unavailable")
}

func TestSettlement_CompensatesFailedLines(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	tee := seedProduct(t, db, "Tee", "apparel", 20000, 3, true)
	addToCart(t, db, "owner-1", tee.ID, 2)

	svc := apporder.NewSettlementService(
		NewGormCartRepository(db),
		NewGormProductRepository(db),
		failingLinesRepository{NewGormOrderRepository(db)},
		zap.NewNop(),
	)

	_, err := svc.SettleOrder(ctx, "owner-1", testAddress, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrOrderLinePersist)
	assert.Equal(t, shared.KindPersistence, shared.KindOf(err))

	var serr *order.SettlementError
	require.ErrorAs(t, err, &serr)
	_, err = NewGormOrderRepository(db).FindByID(ctx, serr.OrderID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, 3, stockOf(t, db, tee.ID))
	assert.Equal(t, int64(1), countRows(t, db, "cart_items"))
}

// racingProductRepository drains stock of one product right before the
// settlement decrements it, as a concurrent checkout would
type racingProductRepository struct {
	*GormProductRepository
	db     *gorm.DB
	victim uuid.UUID
}

func (r racingProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if id == r.victim {
		if err := r.db.Exec("UPDATE products SET stock_quantity = 0 WHERE id = ?", id).Error; err != nil {
			return err
		}
	}
	return r.GormProductRepository.DecrementStock(ctx, id, quantity)
}

func raceScenario(t *testing.T) (*gorm.DB, *catalog.Product, *catalog.Product, catalog.ProductRepository) {
	t.Helper()
	db := newSQLiteDB(t)
	tee := seedProduct(t, db, "Tee", "apparel", 20000, 3, true)
	mug := seedProduct(t, db, "Mug", "kitchen", 9000, 5, true)
	addToCart(t, db, "owner-1", mug.ID, 1)

	// newest line settles first
	line, err := cart.NewLine("owner-1", tee.ID, 2)
	require.NoError(t, err)
	line.CreatedAt = line.CreatedAt.Add(time.Second)
	_, err = NewGormCartRepository(db).AddOrIncrement(context.Background(), line)
	require.NoError(t, err)
	return db, tee, mug, racingProductRepository{GormProductRepository: NewGormProductRepository(db), db: db, victim: mug.ID}
}

func TestSettlement_LostStockRace(t *testing.T) {
	t.Run("saga removes the order and keeps earlier decrements", func(t *testing.T) {
		db, tee, mug, products := raceScenario(t)
		svc := apporder.NewSettlementService(NewGormCartRepository(db), products, NewGormOrderRepository(db), zap.NewNop())

		_, err := svc.SettleOrder(context.Background(), "owner-1", testAddress, "")
		assert.ErrorIs(t, err, order.ErrStockUpdate)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		var serr *order.SettlementError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, mug.ID, serr.ProductID)

		assert.Zero(t, countRows(t, db, "orders"))
		assert.Zero(t, countRows(t, db, "order_items"))
		assert.Equal(t, 1, stockOf(t, db, tee.ID))
		assert.Equal(t, int64(2), countRows(t, db, "cart_items"))
	})

	t.Run("transaction rolls every write back", func(t *testing.T) {
		db, tee, mug, _ := raceScenario(t)
		svc := newSettlement(db).WithTransactionScope(&racingScope{db: db, victim: mug.ID})

		_, err := svc.SettleOrder(context.Background(), "owner-1", testAddress, "")
		assert.ErrorIs(t, err, order.ErrStockUpdate)

		assert.Zero(t, countRows(t, db, "orders"))
		assert.Zero(t, countRows(t, db, "order_items"))
		assert.Equal(t, 3, stockOf(t, db, tee.ID))
	})
}

// racingScope is GormTransactionScope with the racing product repository
// bound to the transaction
type racingScope struct {
	db     *gorm.DB
	victim uuid.UUID
}

func (s *racingScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(racingRepos{
			gormTransactionalRepositories: &gormTransactionalRepositories{tx: tx},
			products:                      racingProductRepository{GormProductRepository: NewGormProductRepository(tx), db: tx, victim: s.victim},
		})
	})
}

type racingRepos struct {
	*gormTransactionalRepositories
	products catalog.ProductRepository
}

func (r racingRepos) ProductRepo() catalog.ProductRepository {
	return r.products
}
