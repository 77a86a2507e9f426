package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
)

// AddCartItemRequest adds a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid" example:"6f1c2a4e-8b7d-4c3a-9e1f-2a3b4c5d6e7f"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=99" example:"1"`
}

// UpdateCartItemRequest replaces a line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=99" example:"2"`
}

// CartItemResponse is a stored cart line
type CartItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLineResponse is a cart line with the current product
type CartLineResponse struct {
	CartItemResponse
	Subtotal decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Product  ProductResponse `json:"product"`
}

// CartSummaryResponse totals the cart at current prices
type CartSummaryResponse struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount" swaggertype:"string"`
}

// CartResponse is the owner's cart
// @Description Cart lines newest first with totals
type CartResponse struct {
	Items   []CartLineResponse  `json:"items"`
	Summary CartSummaryResponse `json:"summary"`
}

// ToCartItemResponse converts a domain cart line
func ToCartItemResponse(l *cart.Line) CartItemResponse {
	return CartItemResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// ToCartResponse converts a cart view
func ToCartResponse(v *appcart.View) CartResponse {
	items := make([]CartLineResponse, len(v.Lines))
	for i := range v.Lines {
		l := &v.Lines[i]
		items[i] = CartLineResponse{
			CartItemResponse: ToCartItemResponse(&l.Line),
			Subtotal:         l.Subtotal(),
			Product:          ToProductResponse(&l.Product),
		}
	}
	return CartResponse{
		Items: items,
		Summary: CartSummaryResponse{
			TotalItems:    v.Summary.TotalItems,
			TotalQuantity: v.Summary.TotalQuantity,
			TotalAmount:   v.Summary.TotalAmount,
		},
	}
}
