package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var productSortFields = map[string]bool{
	catalog.SortByCreatedAt: true,
	catalog.SortByPrice:     true,
	catalog.SortByName:      true,
}

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive lists active products matching the query
func (r *GormProductRepository) FindActive(ctx context.Context, q catalog.ProductQuery) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("is_active = ?", true)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(q.SortBy, productSortFields, catalog.SortByCreatedAt)
	var rows []models.ProductModel
	if err := query.
		Order(fmt.Sprintf("%s %s", sortField, ValidateSortOrder(q.SortOrder))).
		Offset(shared.Offset(q.Page, q.Limit)).
		Limit(q.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, total, nil
}

// Categories lists distinct categories of active products
func (r *GormProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

// DecrementStock subtracts quantity with a conditional update so concurrent
// settlements can never drive stock below zero
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
