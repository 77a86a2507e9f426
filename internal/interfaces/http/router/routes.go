package router

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/handler"
)

// Handlers are the API handlers mounted under /api/v1
type Handlers struct {
	Products *handler.ProductHandler
	Carts    *handler.CartHandler
	Orders   *handler.OrderHandler
	Payments *handler.PaymentHandler
	System   *handler.SystemHandler
}

// APIGroups builds the storefront route groups. auth guards every route
// that reads or writes owner data; catalog, system and gateway callbacks
// stay public.
func APIGroups(h Handlers, auth gin.HandlerFunc) []RouteRegistrar {
	products := NewDomainGroup("products", "/products").
		GET("", h.Products.List).
		GET("/categories", h.Products.Categories).
		GET("/:id", h.Products.Get)

	cart := NewDomainGroup("cart", "/cart").RequireAuth(auth).
		GET("", h.Carts.Get).
		DELETE("", h.Carts.Clear).
		POST("/items", h.Carts.AddItem).
		PUT("/items/:product_id", h.Carts.UpdateItem).
		DELETE("/items/:product_id", h.Carts.RemoveItem)

	orders := NewDomainGroup("orders", "/orders").RequireAuth(auth).
		POST("", h.Orders.Create).
		GET("", h.Orders.List).
		GET("/:id", h.Orders.Get)

	payments := NewDomainGroup("payments", "/payments").
		GET("/callback/success", h.Payments.SuccessCallback).
		GET("/callback/fail", h.Payments.FailCallback)
	payments.Group("payments-owner", "").RequireAuth(auth).
		POST("/confirm", h.Payments.Confirm).
		GET("", h.Payments.List).
		GET("/:payment_key", h.Payments.Get).
		POST("/:payment_key/cancel", h.Payments.Cancel)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return []RouteRegistrar{products, cart, orders, payments, system}
}
