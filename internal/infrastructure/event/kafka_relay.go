package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// messageWriter is the part of *kafka.Writer the relay uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRelay forwards every event to a topic per aggregate type, e.g.
// "storefront.order", keyed by aggregate id so one order's events stay in
// one partition.
type KafkaRelay struct {
	writer      messageWriter
	topicPrefix string
	serializer  *EventSerializer
	logger      *zap.Logger
}

// NewKafkaWriter builds the writer for the configured brokers. The topic is
// set per message.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaRelay creates a relay over writer
func NewKafkaRelay(writer messageWriter, cfg config.KafkaConfig, serializer *EventSerializer, logger *zap.Logger) *KafkaRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaRelay{
		writer:      writer,
		topicPrefix: cfg.TopicPrefix,
		serializer:  serializer,
		logger:      logger,
	}
}

// EventTypes returns nil: the relay receives every event
func (r *KafkaRelay) EventTypes() []string {
	return nil
}

// Handle writes the event and waits for the brokers to acknowledge it
func (r *KafkaRelay) Handle(ctx context.Context, evt shared.DomainEvent) error {
	body, err := r.serializer.Serialize(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: r.topicPrefix + strings.ToLower(evt.AggregateType()),
		Key:   []byte(evt.AggregateID().String()),
		Value: body,
		Time:  evt.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.EventID().String())},
			{Key: "event_type", Value: []byte(evt.EventType())},
			{Key: "owner_id", Value: []byte(evt.OwnerID())},
		},
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	r.logger.Debug("event relayed to kafka", zap.String("topic", msg.Topic), zap.String("event_id", evt.EventID().String()))
	return nil
}

// Close flushes and closes the writer
func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}

var _ shared.EventHandler = (*KafkaRelay)(nil)
