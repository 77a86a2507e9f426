// Package event delivers domain events. Events are written to the
// outbox_entries table with the state change that raised them, then the
// OutboxProcessor replays them through the InMemoryEventBus to local
// handlers and, when configured, to a RabbitMQ or Kafka relay.
package event
