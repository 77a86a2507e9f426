package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductModel is the persistence model for catalog.Product.
// stock_quantity carries a CHECK (stock_quantity >= 0) in the SQL migrations.
type ProductModel struct {
	BaseModel
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Category      string          `gorm:"type:varchar(50);index"`
	StockQuantity int             `gorm:"not null;default:0"`
	IsActive      bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		Category:      m.Category,
		StockQuantity: m.StockQuantity,
		IsActive:      m.IsActive,
	}
}

// ProductModelFromDomain creates a model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// CartItemModel is the persistence model for cart.Line
type CartItemModel struct {
	BaseModel
	OwnerID   string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_cart_owner_product,priority:1"`
	ProductID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_cart_owner_product,priority:2"`
	Quantity  int           `gorm:"not null"`
	Product   *ProductModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the model to a domain Line
func (m *CartItemModel) ToDomain() *cart.Line {
	return &cart.Line{
		BaseEntity: m.BaseModel.ToDomain(),
		OwnerID:    m.OwnerID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
	}
}

// ToLineWithProduct converts a model loaded with its product
func (m *CartItemModel) ToLineWithProduct() cart.LineWithProduct {
	lp := cart.LineWithProduct{Line: *m.ToDomain()}
	if m.Product != nil {
		lp.Product = *m.Product.ToDomain()
	}
	return lp
}

// CartItemModelFromDomain creates a model from a domain Line
func CartItemModelFromDomain(l *cart.Line) *CartItemModel {
	m := &CartItemModel{
		OwnerID:   l.OwnerID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// OrderModel is the persistence model for the order header row
type OrderModel struct {
	BaseModel
	OwnerID         string           `gorm:"type:varchar(255);not null;index"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Status          order.Status     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress string           `gorm:"type:jsonb"`
	OrderNote       string           `gorm:"type:text"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model, and any loaded items, to a domain Order.
// An unreadable address column yields an empty address.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		AggregateRoot: shared.AggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		OwnerID:       m.OwnerID,
		TotalAmount:   m.TotalAmount,
		Status:        m.Status,
		Note:          m.OrderNote,
	}
	if m.ShippingAddress != "" {
		_ = json.Unmarshal([]byte(m.ShippingAddress), &o.ShippingAddress)
	}
	if m.Items != nil {
		o.Lines = make([]order.Line, 0, len(m.Items))
		for i := range m.Items {
			o.Lines = append(o.Lines, m.Items[i].ToDomain())
		}
	}
	return o
}

// OrderModelFromDomain creates a header model from a domain Order; lines are
// persisted separately
func OrderModelFromDomain(o *order.Order) (*OrderModel, error) {
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, err
	}
	m := &OrderModel{
		OwnerID:         o.OwnerID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		ShippingAddress: string(address),
		OrderNote:       o.Note,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m, nil
}

// OrderItemModel is the persistence model for an order line snapshot
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain Line
func (m *OrderItemModel) ToDomain() order.Line {
	return order.Line{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		Price:       m.Price,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a model from a domain Line
func OrderItemModelFromDomain(l order.Line) OrderItemModel {
	return OrderItemModel{
		ID:          l.ID,
		OrderID:     l.OrderID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		Quantity:    l.Quantity,
		Price:       l.Price,
		CreatedAt:   l.CreatedAt,
	}
}

// PaymentModel is the persistence model for payment.Payment
type PaymentModel struct {
	BaseModel
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	OwnerID            string          `gorm:"type:varchar(255);not null;index"`
	PaymentKey         string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status             payment.Status  `gorm:"type:varchar(30);not null"`
	Method             string          `gorm:"type:varchar(50)"`
	ApprovedAt         *time.Time
	CanceledAt         *time.Time
	CancelReason       string          `gorm:"type:text"`
	CancelAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LastTransactionKey string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		AggregateRoot:      shared.AggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		OrderID:            m.OrderID,
		OwnerID:            m.OwnerID,
		PaymentKey:         m.PaymentKey,
		Amount:             m.Amount,
		Status:             m.Status,
		Method:             m.Method,
		ApprovedAt:         m.ApprovedAt,
		CanceledAt:         m.CanceledAt,
		CancelReason:       m.CancelReason,
		CancelAmount:       m.CancelAmount,
		LastTransactionKey: m.LastTransactionKey,
	}
}

// PaymentModelFromDomain creates a model from a domain Payment
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		OrderID:            p.OrderID,
		OwnerID:            p.OwnerID,
		PaymentKey:         p.PaymentKey,
		Amount:             p.Amount,
		Status:             p.Status,
		Method:             p.Method,
		ApprovedAt:         p.ApprovedAt,
		CanceledAt:         p.CanceledAt,
		CancelReason:       p.CancelReason,
		CancelAmount:       p.CancelAmount,
		LastTransactionKey: p.LastTransactionKey,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// AllModels lists every model for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&ProductModel{},
		&CartItemModel{},
		&OrderModel{},
		&OrderItemModel{},
		&PaymentModel{},
		&OutboxEntryModel{},
	}
}
