package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByOwnerWithProducts reads an owner's lines joined with products, newest first
func (r *GormCartRepository) FindByOwnerWithProducts(ctx context.Context, ownerID string) ([]cart.LineWithProduct, error) {
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]cart.LineWithProduct, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].ToLineWithProduct())
	}
	return lines, nil
}

// AddOrIncrement inserts the line, or adds its quantity to the existing
// (owner, product) line in the same statement
func (r *GormCartRepository) AddOrIncrement(ctx context.Context, line *cart.Line) (*cart.Line, error) {
	model := models.CartItemModelFromDomain(line)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(model).Error
	if err != nil {
		return nil, err
	}
	return r.find(ctx, line.OwnerID, line.ProductID)
}

// UpdateQuantity sets the quantity of an owner's line for a product
func (r *GormCartRepository) UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (*cart.Line, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItemModel{}).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return r.find(ctx, ownerID, productID)
}

// Remove deletes an owner's line for a product
func (r *GormCartRepository) Remove(ctx context.Context, ownerID string, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Delete(&models.CartItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearByOwner deletes every line of an owner
func (r *GormCartRepository) ClearByOwner(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.CartItemModel{}).Error
}

func (r *GormCartRepository) find(ctx context.Context, ownerID string, productID uuid.UUID) (*cart.Line, error) {
	var model models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ cart.Repository = (*GormCartRepository)(nil)
