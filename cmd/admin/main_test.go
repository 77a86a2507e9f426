package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/interfaces/http/handler"
)

func newTestServices(t *testing.T) (services, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	orders := orderapp.NewQueryService(persistence.NewGormOrderRepository(db), zap.NewNop())
	orders.SetEventPublisher(event.NewOutboxPublisher(db, event.NewEventSerializer(), 3))
	return services{
		products: catalogapp.NewProductService(persistence.NewGormProductRepository(db)),
		orders:   orders,
	}, db
}

func runJSON(t *testing.T, svc services, out any, args ...string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), svc, args, &buf))
	require.NoError(t, json.Unmarshal(buf.Bytes(), out), buf.String())
}

func placeOrder(t *testing.T, db *gorm.DB, owner string, productID uuid.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(owner, order.ShippingAddress{
		Name:       "Kim",
		Phone:      "010-1234-5678",
		PostalCode: "04524",
		Address:    "Sejong-daero 110",
	}, "", []order.LineDraft{{ProductID: productID, ProductName: "Kettle", Quantity: 1, Price: decimal.NewFromInt(39000)}})
	require.NoError(t, err)
	repo := persistence.NewGormOrderRepository(db)
	require.NoError(t, repo.Create(context.Background(), o))
	require.NoError(t, repo.CreateLines(context.Background(), o.Lines))
	return o
}

func TestRun_Catalog(t *testing.T) {
	svc, _ := newTestServices(t)

	var created handler.ProductResponse
	runJSON(t, svc, &created, "product-add", "-name", "Kettle", "-price", "39000", "-category", "kitchen", "-stock", "3")
	assert.Equal(t, "Kettle", created.Name)
	assert.True(t, created.IsActive)
	assert.Equal(t, 3, created.StockQuantity)

	var delisted handler.ProductResponse
	runJSON(t, svc, &delisted, "product-active", created.ID.String(), "false")
	assert.False(t, delisted.IsActive)

	_, err := svc.products.GetProduct(context.Background(), created.ID)
	assert.Error(t, err, "delisted products are hidden from the storefront")

	assert.Error(t, run(context.Background(), svc, []string{"product-add", "-name", "Bad", "-price", "abc"}, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), svc, []string{"product-active", created.ID.String(), "maybe"}, &bytes.Buffer{}))
}

func TestRun_Orders(t *testing.T) {
	svc, db := newTestServices(t)
	o := placeOrder(t, db, "buyer-1", uuid.New())

	var listed []handler.OrderResponse
	runJSON(t, svc, &listed, "orders", "buyer-1")
	require.Len(t, listed, 1)
	assert.Equal(t, o.ID, listed[0].ID)

	var none []handler.OrderResponse
	runJSON(t, svc, &none, "orders", "nobody")
	assert.Empty(t, none)

	var shown handler.OrderResponse
	runJSON(t, svc, &shown, "order", o.ID.String())
	assert.Len(t, shown.Items, 1)

	for _, status := range []string{"confirmed", "shipped", "delivered"} {
		var moved handler.OrderResponse
		runJSON(t, svc, &moved, "set-status", o.ID.String(), status)
		assert.Equal(t, status, moved.Status)
	}

	var entries int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&entries).Error)
	assert.Equal(t, int64(3), entries, "each status change is written to the outbox")

	err := run(context.Background(), svc, []string{"set-status", o.ID.String(), "pending"}, &bytes.Buffer{})
	assert.Error(t, err, "delivered is terminal")
}

func TestRun_ArgumentErrors(t *testing.T) {
	svc, _ := newTestServices(t)
	tests := [][]string{
		{"orders"},
		{"order", "not-a-uuid"},
		{"set-status", uuid.NewString()},
		{"set-status", uuid.NewString(), "teleported"},
		{"product-active", uuid.NewString()},
		{"refund"},
	}
	for _, args := range tests {
		assert.Error(t, run(context.Background(), svc, args, &bytes.Buffer{}), "%v", args)
	}
}
