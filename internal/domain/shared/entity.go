package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides identity and timestamps for persisted entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt to now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// AggregateRoot collects domain events raised while mutating an aggregate
type AggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
}

// NewAggregateRoot creates an aggregate root with a fresh identity
func NewAggregateRoot() AggregateRoot {
	return AggregateRoot{BaseEntity: NewBaseEntity()}
}

// AddDomainEvent records an event to be published after the aggregate is saved
func (a *AggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *AggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *AggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
