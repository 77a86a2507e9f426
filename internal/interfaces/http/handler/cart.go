package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcart "github.com/storefront/backend/internal/application/cart"
)

// CartHandler manages the authenticated owner's cart
type CartHandler struct {
	BaseHandler
	cartService *appcart.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *appcart.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get godoc
//
//	@Summary	Get the cart
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	APIResponse[CartResponse]
//	@Failure	401	{object}	ErrorResponse
//	@Router		/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	view, err := h.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToCartResponse(view))
}

// AddItem godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adding a product already in the cart increments its quantity
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		AddCartItemRequest	true	"Product and quantity"
//	@Success		201		{object}	APIResponse[CartItemResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	line, err := h.cartService.AddItem(c.Request.Context(), owner, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, ToCartItemResponse(line))
}

// UpdateItem godoc
//
//	@Summary	Set a cart line quantity
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		product_id	path		string					true	"Product ID"	format(uuid)
//	@Param		request		body		UpdateCartItemRequest	true	"New quantity"
//	@Success	200			{object}	APIResponse[CartItemResponse]
//	@Failure	404			{object}	ErrorResponse
//	@Router		/cart/items/{product_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	line, err := h.cartService.UpdateQuantity(c.Request.Context(), owner, productID, req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToCartItemResponse(line))
}

// RemoveItem godoc
//
//	@Summary	Remove a cart line
//	@Tags		cart
//	@Security	BearerAuth
//	@Param		product_id	path	string	true	"Product ID"	format(uuid)
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}
	if err := h.cartService.RemoveItem(c.Request.Context(), owner, productID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Clear godoc
//
//	@Summary	Empty the cart
//	@Tags		cart
//	@Security	BearerAuth
//	@Success	204
//	@Router		/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
