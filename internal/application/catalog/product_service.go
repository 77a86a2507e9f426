package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Listing bounds
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ListFilter is the browse input for ListProducts
type ListFilter struct {
	Category  string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ProductService serves catalog reads
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ListProducts pages the active catalog
func (s *ProductService) ListProducts(ctx context.Context, filter ListFilter) (shared.Paginated[catalog.Product], error) {
	q := catalog.ProductQuery{
		Category:  strings.TrimSpace(filter.Category),
		Page:      filter.Page,
		Limit:     filter.Limit,
		SortBy:    strings.ToLower(strings.TrimSpace(filter.SortBy)),
		SortOrder: strings.ToLower(strings.TrimSpace(filter.SortOrder)),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	switch q.SortBy {
	case "":
		q.SortBy = catalog.SortByCreatedAt
	case catalog.SortByCreatedAt, catalog.SortByPrice, catalog.SortByName:
	default:
		return shared.Paginated[catalog.Product]{}, shared.NewDomainError("INVALID_SORT_FIELD", "Products can be sorted by created_at, price or name")
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = shared.SortDesc
	case shared.SortAsc, shared.SortDesc:
	default:
		return shared.Paginated[catalog.Product]{}, shared.NewDomainError("INVALID_SORT_ORDER", "Sort order must be asc or desc")
	}

	products, total, err := s.productRepo.FindActive(ctx, q)
	if err != nil {
		return shared.Paginated[catalog.Product]{}, err
	}
	return shared.NewPaginated(products, total, q.Page, q.Limit), nil
}

// GetProduct loads an active product
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// Categories lists the categories of active products
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// NewProductInput describes a product added by catalog tooling
type NewProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

// CreateProduct validates and stores a new active product
func (s *ProductService) CreateProduct(ctx context.Context, in NewProductInput) (*catalog.Product, error) {
	p, err := catalog.NewProduct(in.Name, in.Price, in.Stock)
	if err != nil {
		return nil, err
	}
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetProductActive lists or delists a product regardless of its current state
func (s *ProductService) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (*catalog.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsActive == active {
		return p, nil
	}
	p.SetActive(active)
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
