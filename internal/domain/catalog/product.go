package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Stock thresholds used when presenting availability
const (
	LowStockThreshold = 10
)

// StockStatus is a coarse availability label for a product
type StockStatus string

const (
	StockStatusSoldOut StockStatus = "sold_out"
	StockStatusLow     StockStatus = "low_stock"
	StockStatusInStock StockStatus = "in_stock"
)

// Product is a sellable item in the catalog
type Product struct {
	shared.BaseEntity
	Name          string
	Description   string
	Price         decimal.Decimal
	Category      string
	StockQuantity int
	IsActive      bool
}

// NewProduct creates a new active product
func NewProduct(name string, price decimal.Decimal, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}
	return &Product{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}, nil
}

// CanFulfil reports whether the product can be sold in the requested quantity
func (p *Product) CanFulfil(quantity int) bool {
	return p.IsActive && p.StockQuantity >= quantity
}

// AvailableStock is the stock a buyer can actually order; inactive products
// expose none
func (p *Product) AvailableStock() int {
	if !p.IsActive {
		return 0
	}
	return p.StockQuantity
}

// StockStatus classifies the current stock level
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.StockQuantity <= 0:
		return StockStatusSoldOut
	case p.StockQuantity < LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusInStock
	}
}

// ChangePrice sets a new price. Existing order lines keep their snapshot.
func (p *Product) ChangePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// DecreaseStock removes quantity from the in-memory stock count
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockQuantity < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", p.Name, p.StockQuantity, quantity))
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

// SetActive lists or delists the product. Delisted products keep their stock
// but cannot be bought.
func (p *Product) SetActive(active bool) {
	if p.IsActive == active {
		return
	}
	p.IsActive = active
	p.UpdatedAt = time.Now()
}
