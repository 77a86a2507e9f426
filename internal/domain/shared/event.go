package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events travel through the
// outbox as JSON, so implementations must round-trip through encoding/json.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	// OwnerID is empty for system events
	OwnerID() string
}

// EventPublisher hands events off for delivery. Publishing to the outbox
// only records them; delivery happens later and at least once.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler consumes delivered events. Handlers may see the same event
// more than once and must tolerate it.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to receive; nil subscribes to everything
	EventTypes() []string
}

// EventBus dispatches published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// BaseDomainEvent carries the envelope fields every event embeds
type BaseDomainEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	AggID      uuid.UUID `json:"aggregate_id"`
	AggType    string    `json:"aggregate_type"`
	OwnerValue string    `json:"owner_id,omitempty"`
}

func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID, ownerID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Timestamp:  time.Now(),
		AggID:      aggID,
		AggType:    aggType,
		OwnerValue: ownerID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggType }
func (e *BaseDomainEvent) OwnerID() string        { return e.OwnerValue }
