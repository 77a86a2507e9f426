package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
)

// ShippingAddressRequest is the delivery address form
type ShippingAddressRequest struct {
	Name          string `json:"name" binding:"required,max=50" example:"Kim Minji"`
	Phone         string `json:"phone" binding:"required,phone" example:"010-1234-5678"`
	PostalCode    string `json:"postal_code" binding:"required" example:"06236"`
	Address       string `json:"address" binding:"required,max=200" example:"Teheran-ro 1, Gangnam-gu, Seoul"`
	DetailAddress string `json:"detail_address" binding:"max=100" example:"Apt 101"`
}

// ToDomain converts the form to a domain address
func (r ShippingAddressRequest) ToDomain() order.ShippingAddress {
	return order.ShippingAddress{
		Name:          r.Name,
		Phone:         r.Phone,
		PostalCode:    r.PostalCode,
		Address:       r.Address,
		DetailAddress: r.DetailAddress,
	}
}

// CreateOrderRequest places an order from the cart
type CreateOrderRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shipping_address" binding:"required"`
	OrderNote       string                 `json:"order_note" binding:"max=500"`
}

// ListOrdersQuery is the order history query string
type ListOrdersQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	Status    string `form:"status"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// ShippingAddressResponse is a stored delivery address
type ShippingAddressResponse struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	PostalCode    string `json:"postal_code"`
	Address       string `json:"address"`
	DetailAddress string `json:"detail_address,omitempty"`
}

// OrderItemResponse is an order line snapshot
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderResponse represents an order in API responses
// @Description Order with its line snapshots when loaded individually
type OrderResponse struct {
	ID              uuid.UUID               `json:"id"`
	Status          string                  `json:"status" example:"pending"`
	TotalAmount     decimal.Decimal         `json:"total_amount" swaggertype:"string" example:"40000"`
	ShippingAddress ShippingAddressResponse `json:"shipping_address"`
	OrderNote       string                  `json:"order_note,omitempty"`
	Items           []OrderItemResponse     `json:"items,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		Status:      o.Status.String(),
		TotalAmount: o.TotalAmount,
		ShippingAddress: ShippingAddressResponse{
			Name:          o.ShippingAddress.Name,
			Phone:         o.ShippingAddress.Phone,
			PostalCode:    o.ShippingAddress.PostalCode,
			Address:       o.ShippingAddress.Address,
			DetailAddress: o.ShippingAddress.DetailAddress,
		},
		OrderNote: o.Note,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if len(o.Lines) > 0 {
		resp.Items = make([]OrderItemResponse, len(o.Lines))
		for i, l := range o.Lines {
			resp.Items[i] = OrderItemResponse{
				ID:          l.ID,
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Quantity:    l.Quantity,
				Price:       l.Price,
				Amount:      l.Amount(),
				CreatedAt:   l.CreatedAt,
			}
		}
	}
	return resp
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
