package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderHandler places and reads the authenticated owner's orders
type OrderHandler struct {
	BaseHandler
	settlement *apporder.SettlementService
	query      *apporder.QueryService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(settlement *apporder.SettlementService, query *apporder.QueryService) *OrderHandler {
	return &OrderHandler{settlement: settlement, query: query}
}

// Create godoc
//
//	@Summary		Place an order
//	@Description	Converts the cart into a pending order, reserving stock
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateOrderRequest	true	"Shipping address and note"
//	@Success		201		{object}	APIResponse[OrderResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse	"Empty cart or insufficient stock"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	o, err := h.settlement.SettleOrder(c.Request.Context(), owner, req.ShippingAddress.ToDomain(), req.OrderNote)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, ToOrderResponse(o))
}

// List godoc
//
//	@Summary	List my orders
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		page		query		int		false	"Page number"	default(1)
//	@Param		limit		query		int		false	"Page size"		default(10)
//	@Param		status		query		string	false	"Status filter"
//	@Param		sort_by		query		string	false	"created_at or total_amount"
//	@Param		sort_order	query		string	false	"asc or desc"
//	@Success	200			{object}	PagedResponse[OrderResponse]
//	@Router		/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.query.ListUserOrders(c.Request.Context(), owner, apporder.ListFilter{
		Page:      q.Page,
		Limit:     q.Limit,
		Status:    q.Status,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(ToOrderResponses(page.Items), page))
}

// Get godoc
//
//	@Summary	Get one of my orders
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Order ID"	format(uuid)
//	@Success	200	{object}	APIResponse[OrderResponse]
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.query.GetOrderForOwner(c.Request.Context(), owner, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToOrderResponse(o))
}
