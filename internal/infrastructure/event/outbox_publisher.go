package event

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
)

// OutboxPublisher implements shared.EventPublisher by writing events to the
// outbox. Delivery happens later in the OutboxProcessor.
type OutboxPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher creates a publisher writing through db. maxRetries <= 0
// keeps shared.DefaultMaxRetries.
func NewOutboxPublisher(db *gorm.DB, serializer *EventSerializer, maxRetries int) *OutboxPublisher {
	return &OutboxPublisher{db: db, serializer: serializer, maxRetries: maxRetries}
}

// Publish stores events as pending outbox entries
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx stores events through tx so they commit with the caller's writes
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := p.serializer.Serialize(evt)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", evt.EventType(), err)
		}
		entry := shared.NewOutboxEntry(evt, payload)
		if p.maxRetries > 0 {
			entry.MaxRetries = p.maxRetries
		}
		entries = append(entries, entry)
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// TxPublisher returns a publisher bound to tx, for transactional settlement
func (p *OutboxPublisher) TxPublisher(tx *gorm.DB) shared.EventPublisher {
	return &OutboxPublisher{db: tx, serializer: p.serializer, maxRetries: p.maxRetries}
}

var _ shared.EventPublisher = (*OutboxPublisher)(nil)
