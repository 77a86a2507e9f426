package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByOwnerWithProducts(ctx context.Context, ownerID string) ([]cart.LineWithProduct, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.LineWithProduct), args.Error(1)
}

func (m *MockCartRepository) AddOrIncrement(ctx context.Context, line *cart.Line) (*cart.Line, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (*cart.Line, error) {
	args := m.Called(ctx, ownerID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartRepository) Remove(ctx context.Context, ownerID string, productID uuid.UUID) error {
	args := m.Called(ctx, ownerID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) ClearByOwner(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context, query catalog.ProductQuery) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateLines(ctx context.Context, lines []order.Line) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPageByOwner(ctx context.Context, ownerID string, q order.Query) ([]order.Order, int64, error) {
	args := m.Called(ctx, ownerID, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	args := m.Called(ctx, o, from)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteLines(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// fakeTxScope runs fn against the given repositories and reports whether the
// transaction would have committed
type fakeTxScope struct {
	orders    order.Repository
	products  catalog.ProductRepository
	publisher shared.EventPublisher
	committed bool
	calls     int
}

func (f *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	f.calls++
	err := fn(f)
	f.committed = err == nil
	return err
}

func (f *fakeTxScope) OrderRepo() order.Repository            { return f.orders }
func (f *fakeTxScope) ProductRepo() catalog.ProductRepository { return f.products }
func (f *fakeTxScope) EventPublisher() shared.EventPublisher  { return f.publisher }
