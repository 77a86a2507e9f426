package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Per-request quantity bounds for adding or updating a line
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// Cart errors
var (
	ErrInvalidOwner    = shared.NewDomainError("INVALID_OWNER", "Owner ID is required")
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
	ErrInvalidProduct  = shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
)

// Line is one product in an owner's cart. (owner_id, product_id) is unique.
type Line struct {
	shared.BaseEntity
	OwnerID   string
	ProductID uuid.UUID
	Quantity  int
}

// NewLine validates and creates a cart line
func NewLine(ownerID string, productID uuid.UUID, quantity int) (*Line, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwner
	}
	if productID == uuid.Nil {
		return nil, ErrInvalidProduct
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return &Line{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		ProductID:  productID,
		Quantity:   quantity,
	}, nil
}

// ValidateQuantity checks a requested quantity against the per-request bounds
func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// LineWithProduct is a cart line joined with the current product row
type LineWithProduct struct {
	Line
	Product catalog.Product
}

// Subtotal is the current price times quantity
func (l LineWithProduct) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary aggregates a cart for display
type Summary struct {
	TotalItems    int
	TotalQuantity int
	TotalAmount   decimal.Decimal
}

// Summarize totals the given lines at current prices
func Summarize(lines []LineWithProduct) Summary {
	s := Summary{TotalAmount: decimal.Zero}
	for _, l := range lines {
		s.TotalItems++
		s.TotalQuantity += l.Quantity
		s.TotalAmount = s.TotalAmount.Add(l.Subtotal())
	}
	return s
}

// Repository defines cart persistence
type Repository interface {
	// FindByOwnerWithProducts reads all lines of an owner joined with products,
	// newest first
	FindByOwnerWithProducts(ctx context.Context, ownerID string) ([]LineWithProduct, error)

	// AddOrIncrement inserts a line or increments the quantity of the
	// existing (owner, product) line, returning the stored line
	AddOrIncrement(ctx context.Context, line *Line) (*Line, error)

	// UpdateQuantity sets the quantity of an owner's line for a product
	UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (*Line, error)

	// Remove deletes an owner's line for a product
	Remove(ctx context.Context, ownerID string, productID uuid.UUID) error

	// ClearByOwner deletes every line of an owner
	ClearByOwner(ctx context.Context, ownerID string) error
}

// SetQuantity replaces the line quantity
func (l *Line) SetQuantity(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	l.Quantity = quantity
	l.Touch()
	return nil
}
