package event

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// amqpChannel is the part of *amqp.Channel the relay uses
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQRelay forwards every event to a durable topic exchange. The routing
// key is "<aggregate>.<EventType>", e.g. "order.OrderPlaced".
type RabbitMQRelay struct {
	conn       *amqp.Connection
	channel    amqpChannel
	exchange   string
	deadLetter string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewRabbitMQRelay dials the broker and declares the exchange topology
func NewRabbitMQRelay(cfg config.RabbitMQConfig, serializer *EventSerializer, logger *zap.Logger) (*RabbitMQRelay, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	relay := newRabbitMQRelay(ch, cfg, serializer, logger)
	relay.conn = conn
	if err := relay.declare(); err != nil {
		_ = relay.Close()
		return nil, err
	}
	return relay, nil
}

func newRabbitMQRelay(ch amqpChannel, cfg config.RabbitMQConfig, serializer *EventSerializer, logger *zap.Logger) *RabbitMQRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RabbitMQRelay{
		channel:    ch,
		exchange:   cfg.Exchange,
		deadLetter: cfg.DeadLetter,
		serializer: serializer,
		logger:     logger,
	}
}

// declare sets up the events exchange and a dead letter exchange with its
// queue, which consumers name as x-dead-letter-exchange on their own queues
func (r *RabbitMQRelay) declare() error {
	if err := r.channel.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.exchange, err)
	}
	if r.deadLetter == "" {
		return nil
	}

	dlx := r.deadLetter + ".exchange"
	if err := r.channel.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", dlx, err)
	}
	if _, err := r.channel.QueueDeclare(r.deadLetter, true, false, false, false, amqp.Table{
		"x-queue-type": "classic",
	}); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.deadLetter, err)
	}
	if err := r.channel.QueueBind(r.deadLetter, "", dlx, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", r.deadLetter, err)
	}
	return nil
}

// EventTypes returns nil: the relay receives every event
func (r *RabbitMQRelay) EventTypes() []string {
	return nil
}

// Handle publishes the event as a persistent JSON message
func (r *RabbitMQRelay) Handle(ctx context.Context, evt shared.DomainEvent) error {
	body, err := r.serializer.Serialize(evt)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID().String(),
		Timestamp:    evt.OccurredAt(),
		Type:         evt.EventType(),
		Body:         body,
		Headers: amqp.Table{
			"aggregate_id":   evt.AggregateID().String(),
			"aggregate_type": evt.AggregateType(),
			"owner_id":       evt.OwnerID(),
		},
	}

	key := routingKey(evt)
	if err := r.channel.PublishWithContext(ctx, r.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", key, err)
	}
	r.logger.Debug("event relayed to rabbitmq", zap.String("routing_key", key), zap.String("event_id", msg.MessageId))
	return nil
}

// Close closes the channel and connection
func (r *RabbitMQRelay) Close() error {
	err := r.channel.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func routingKey(evt shared.DomainEvent) string {
	return strings.ToLower(evt.AggregateType()) + "." + evt.EventType()
}

var _ shared.EventHandler = (*RabbitMQRelay)(nil)
