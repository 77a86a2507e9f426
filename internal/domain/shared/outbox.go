package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry.
//
//	PENDING -> PROCESSING -> SENT
//	              |
//	              +-> FAILED -> PROCESSING ... -> DEAD -> (requeue) PENDING
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// Delivery retry policy
const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	MaxBackoff         = 5 * time.Minute
)

// ErrOutboxEntryNotDead rejects a requeue of an entry that still has retries left
var ErrOutboxEntryNotDead = NewDomainError("INVALID_STATUS", "Only dead letter entries can be requeued")

// OutboxEntry is a serialized domain event awaiting at-least-once delivery.
// It is written in the same transaction as the change that raised the event.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps an already serialized event as a pending entry
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RetryBackoff is the wait before attempt n+1 after n failures:
// 1s, 2s, 4s ... capped at MaxBackoff
func RetryBackoff(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	if failures > 20 {
		return MaxBackoff
	}
	d := DefaultBaseBackoff << uint(failures-1)
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

// MarkSent records a successful delivery
func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a failed delivery. The entry is rescheduled with
// RetryBackoff, or dead-lettered once MaxRetries attempts have failed.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	now := time.Now()
	e.RetryCount++
	e.LastError = errMsg
	e.UpdatedAt = now

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := now.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// Requeue gives a dead entry a fresh retry budget
func (e *OutboxEntry) Requeue() error {
	if !e.IsDead() {
		return ErrOutboxEntryNotDead
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now()
	return nil
}

// IsDead reports whether the entry exhausted its retries
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRepository stores outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindPending returns never-attempted entries, oldest first
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns FAILED entries whose NextRetryAt is before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims the given entries and returns the ones this caller won
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan purges SENT entries processed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
