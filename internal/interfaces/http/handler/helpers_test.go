package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appcart "github.com/storefront/backend/internal/application/cart"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	apporder "github.com/storefront/backend/internal/application/order"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

const testOwnerHeader = "X-Test-Owner"

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// stubGateway approves or cancels every request unless err is set
type stubGateway struct {
	mu       sync.Mutex
	err      error
	confirms int
	cancels  int
}

func (g *stubGateway) Confirm(_ context.Context, req *payment.ConfirmRequest) (*payment.ConfirmResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirms++
	if g.err != nil {
		return nil, g.err
	}
	return &payment.ConfirmResult{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID.String(),
		Amount:     req.Amount,
		Status:     payment.StatusDone,
		Method:     "card",
		ApprovedAt: time.Now(),
	}, nil
}

func (g *stubGateway) Cancel(_ context.Context, req *payment.CancelRequest) (*payment.CancelResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancels++
	if g.err != nil {
		return nil, g.err
	}
	return &payment.CancelResult{
		PaymentKey: req.PaymentKey,
		Status:     payment.StatusCanceled,
		Cancels: []payment.CancelRecord{{
			CancelReason: req.CancelReason,
			CanceledAt:   time.Now(),
			CancelAmount: decimal.Zero,
		}},
	}, nil
}

type testEnv struct {
	engine  *gin.Engine
	db      *gorm.DB
	gateway *stubGateway
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// newTestEnv wires real services over sqlite. The owner comes from the
// X-Test-Owner header instead of a JWT.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	gw := &stubGateway{}
	log := zap.NewNop()

	productRepo := persistence.NewGormProductRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)

	products := NewProductHandler(appcatalog.NewProductService(productRepo))
	carts := NewCartHandler(appcart.NewCartService(cartRepo, productRepo))
	orders := NewOrderHandler(
		apporder.NewSettlementService(cartRepo, productRepo, orderRepo, log),
		apporder.NewQueryService(orderRepo, log),
	)
	payments := NewPaymentHandler(
		apppayment.NewReconciliationService(paymentRepo, orderRepo, gw, log),
		RedirectConfig{SuccessBase: "https://shop.test/orders/", FailBase: "https://shop.test/checkout"},
	)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.GET("/products", products.List)
	api.GET("/products/categories", products.Categories)
	api.GET("/products/:id", products.Get)
	api.GET("/payments/callback/success", payments.SuccessCallback)
	api.GET("/payments/callback/fail", payments.FailCallback)

	authed := api.Group("", func(c *gin.Context) {
		if owner := c.GetHeader(testOwnerHeader); owner != "" {
			c.Set(middleware.OwnerIDKey, owner)
		}
		c.Next()
	})
	authed.GET("/cart", carts.Get)
	authed.POST("/cart/items", carts.AddItem)
	authed.PUT("/cart/items/:product_id", carts.UpdateItem)
	authed.DELETE("/cart/items/:product_id", carts.RemoveItem)
	authed.DELETE("/cart", carts.Clear)
	authed.POST("/orders", orders.Create)
	authed.GET("/orders", orders.List)
	authed.GET("/orders/:id", orders.Get)
	authed.POST("/payments/confirm", payments.Confirm)
	authed.GET("/payments", payments.List)
	authed.GET("/payments/:payment_key", payments.Get)
	authed.POST("/payments/:payment_key/cancel", payments.Cancel)

	return &testEnv{engine: engine, db: db, gateway: gw}
}

func (e *testEnv) seedProduct(t *testing.T, name, category string, price int64, stock int) uuid.UUID {
	t.Helper()
	m := &models.ProductModel{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		Category:      category,
		StockQuantity: stock,
		IsActive:      true,
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	require.NoError(t, e.db.Create(m).Error)
	return m.ID
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var m models.ProductModel
	require.NoError(t, e.db.First(&m, "id = ?", id).Error)
	return m.StockQuantity
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(testOwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a response with data into out
func envelope(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

func validAddress() map[string]any {
	return map[string]any{
		"name":        "Kim Minji",
		"phone":       "010-1234-5678",
		"postal_code": "06236",
		"address":     "Teheran-ro 1",
	}
}
