package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByPaymentKey finds the payment recorded under a gateway key
func (r *GormPaymentRepository) FindByPaymentKey(ctx context.Context, paymentKey string) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("payment_key = ?", paymentKey))
}

// FindByOrderID finds the most recent payment for an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC"))
}

// FindByOwner lists an owner's payments, newest first
func (r *GormPaymentRepository) FindByOwner(ctx context.Context, ownerID string) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]payment.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, *rows[i].ToDomain())
	}
	return payments, nil
}

// Upsert inserts the payment or overwrites the gateway outcome of the row
// holding the same payment_key
func (r *GormPaymentRepository) Upsert(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "status", "method", "approved_at", "canceled_at",
			"cancel_reason", "cancel_amount", "last_transaction_key", "updated_at",
		}),
	}).Create(models.PaymentModelFromDomain(p)).Error
}

func (r *GormPaymentRepository) first(query *gorm.DB) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ payment.Repository = (*GormPaymentRepository)(nil)
