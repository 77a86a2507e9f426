package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the public catalog
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List godoc
//
//	@Summary		List products
//	@Description	Pages active products, optionally filtered by category
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			limit		query		int		false	"Page size"		default(12)
//	@Param			sort_by		query		string	false	"created_at, price or name"
//	@Param			sort_order	query		string	false	"asc or desc"
//	@Success		200			{object}	PagedResponse[ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.productService.ListProducts(c.Request.Context(), appcatalog.ListFilter{
		Category:  q.Category,
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(ToProductResponses(page.Items), page))
}

// Categories godoc
//
//	@Summary	List product categories
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	APIResponse[[]string]
//	@Router		/products/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, categories)
}

// Get godoc
//
//	@Summary	Get a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"	format(uuid)
//	@Success	200	{object}	APIResponse[ProductResponse]
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToProductResponse(p))
}
