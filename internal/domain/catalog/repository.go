package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Sortable product columns
const (
	SortByCreatedAt = "created_at"
	SortByPrice     = "price"
	SortByName      = "name"
)

// ProductQuery filters and pages the active catalog
type ProductQuery struct {
	Category  string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ProductRepository defines product persistence, including the stock ledger
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindActive lists active products matching the query and the total count
	FindActive(ctx context.Context, query ProductQuery) ([]Product, int64, error)

	// Categories lists distinct categories of active products
	Categories(ctx context.Context) ([]string, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// DecrementStock subtracts quantity only if at least quantity is in stock.
	// Returns shared.ErrInsufficientStock when the guard rejects the update.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
