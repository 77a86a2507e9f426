package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormOutboxRepository implements shared.OutboxRepository on outbox_entries
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GormOutboxRepository
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: tx}
}

// Save inserts entries
func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.OutboxEntryModelFromDomain(e))
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending returns the oldest pending entries
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ?", shared.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit))
}

// FindRetryable returns failed entries whose backoff elapsed before the given time
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", shared.OutboxStatusFailed, before).
		Order("next_retry_at ASC").
		Limit(limit))
}

// FindDead pages dead letters, most recently failed first
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OutboxEntryModel{}).
		Where("status = ?", shared.OutboxStatusDead).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	entries, err := r.find(query.Order("updated_at DESC").Offset(shared.Offset(page, pageSize)).Limit(pageSize))
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindByID loads one entry
func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// MarkProcessing claims the pending or failed entries among ids. Rows locked
// by another processor are skipped on PostgreSQL.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.OutboxEntryModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ? AND status IN ?", ids, []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		rowIDs := make([]uuid.UUID, 0, len(rows))
		for i := range rows {
			rowIDs = append(rowIDs, rows[i].ID)
		}
		now := time.Now()
		if err := tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", rowIDs).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error; err != nil {
			return err
		}

		claimed = make([]*shared.OutboxEntry, 0, len(rows))
		for i := range rows {
			e := rows[i].ToDomain()
			e.Status = shared.OutboxStatusProcessing
			e.UpdatedAt = now
			claimed = append(claimed, e)
		}
		return nil
	})
	return claimed, err
}

// Update writes the entry's delivery state
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

// DeleteOlderThan removes sent entries processed before the given time
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", shared.OutboxStatusSent, before).
		Delete(&models.OutboxEntryModel{})
	return result.RowsAffected, result.Error
}

// CountByStatus counts entries per status
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OutboxEntryModel{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormOutboxRepository) find(query *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*shared.OutboxEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
