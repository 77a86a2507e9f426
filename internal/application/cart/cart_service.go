package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// ErrProductUnavailable is returned when adding an inactive product
var ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for sale")

// View is an owner's cart with current product data
type View struct {
	Lines   []cart.LineWithProduct
	Summary cart.Summary
}

// CartService manages an owner's cart lines
type CartService struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.Repository, productRepo catalog.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the cart lines newest first with their totals
func (s *CartService) GetCart(ctx context.Context, ownerID string) (*View, error) {
	if ownerID == "" {
		return nil, cart.ErrInvalidOwner
	}
	lines, err := s.cartRepo.FindByOwnerWithProducts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []cart.LineWithProduct{}
	}
	return &View{Lines: lines, Summary: cart.Summarize(lines)}, nil
}

// AddItem adds quantity of a product, incrementing an existing line
func (s *CartService) AddItem(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (*cart.Line, error) {
	line, err := cart.NewLine(ownerID, productID, quantity)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return s.cartRepo.AddOrIncrement(ctx, line)
}

// UpdateQuantity replaces the quantity of the owner's line for a product
func (s *CartService) UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (*cart.Line, error) {
	if ownerID == "" {
		return nil, cart.ErrInvalidOwner
	}
	if err := cart.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.UpdateQuantity(ctx, ownerID, productID, quantity)
}

// RemoveItem deletes the owner's line for a product
func (s *CartService) RemoveItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	if ownerID == "" {
		return cart.ErrInvalidOwner
	}
	return s.cartRepo.Remove(ctx, ownerID, productID)
}

// Clear empties the owner's cart
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return cart.ErrInvalidOwner
	}
	return s.cartRepo.ClearByOwner(ctx, ownerID)
}
