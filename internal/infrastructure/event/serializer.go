package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

// EventSerializer encodes events as JSON and decodes them back into the
// concrete type registered for their event type
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates a serializer with every storefront event registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{types: make(map[string]reflect.Type)}
	RegisterStorefrontEvents(s)
	return s
}

// Register maps eventType to the concrete type of prototype
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes an event
func (s *EventSerializer) Serialize(evt shared.DomainEvent) ([]byte, error) {
	return json.Marshal(evt)
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	evt, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return evt, nil
}

// RegisteredTypes returns the registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
