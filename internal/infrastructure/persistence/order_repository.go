package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var orderSortFields = map[string]bool{
	order.SortByCreatedAt:   true,
	order.SortByTotalAmount: true,
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func linesByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// Create inserts the order row without its lines
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model, err := models.OrderModelFromDomain(o)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	return r.db.WithContext(ctx).Omit("Items").Create(model).Error
}

// CreateLines inserts the given lines in one statement
func (r *GormOrderRepository) CreateLines(ctx context.Context, lines []order.Line) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.OrderItemModel, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, models.OrderItemModelFromDomain(l))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByID loads an order with its lines ordered by creation
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", linesByCreation).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	o := model.ToDomain()
	if o.Lines == nil {
		o.Lines = []order.Line{}
	}
	return o, nil
}

// FindByOwner lists an owner's orders without lines, newest first
func (r *GormOrderRepository) FindByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, nil
}

// FindPageByOwner pages an owner's orders with their lines
func (r *GormOrderRepository) FindPageByOwner(ctx context.Context, ownerID string, q order.Query) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("owner_id = ?", ownerID)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(q.SortBy, orderSortFields, order.SortByCreatedAt)
	var rows []models.OrderModel
	if err := query.
		Preload("Items", linesByCreation).
		Order(fmt.Sprintf("%s %s", sortField, ValidateSortOrder(q.SortOrder))).
		Offset(shared.Offset(q.Page, q.Limit)).
		Limit(q.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// UpdateStatus writes o.Status only while the stored status is still from
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", o.ID, from).
		Updates(map[string]any{"status": o.Status, "updated_at": o.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// Delete removes an order row
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OrderModel{}, "id = ?", id).Error
}

// DeleteLines removes all lines of an order
func (r *GormOrderRepository) DeleteLines(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItemModel{}).Error
}

var _ order.Repository = (*GormOrderRepository)(nil)
