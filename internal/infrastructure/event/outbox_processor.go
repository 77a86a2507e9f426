package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessorConfigFrom maps the event section of the app config
func OutboxProcessorConfigFrom(cfg config.EventConfig) OutboxProcessorConfig {
	out := DefaultOutboxProcessorConfig()
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		out.PollInterval = cfg.PollInterval
	}
	out.CleanupEnabled = cfg.CleanupEnabled
	if cfg.CleanupRetention > 0 {
		out.CleanupRetention = cfg.CleanupRetention
	}
	return out
}

// Delivery outcomes reported to a DeliveryObserver
const (
	OutcomeSent  = "sent"
	OutcomeRetry = "retry"
	OutcomeDead  = "dead"
)

// DeliveryObserver is told the outcome of every delivery attempt
type DeliveryObserver interface {
	ObserveOutboxDelivery(eventType, outcome string)
}

// BatchResult tallies one ProcessBatch run
type BatchResult struct {
	Sent    int
	Retried int
	Dead    int
}

// Total is the number of entries attempted
func (r BatchResult) Total() int { return r.Sent + r.Retried + r.Dead }

func (r *BatchResult) add(outcome string) {
	switch outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeRetry:
		r.Retried++
	case OutcomeDead:
		r.Dead++
	}
}

// OutboxProcessor polls the outbox and replays entries through the bus.
// A failed delivery is retried with backoff until the entry goes dead.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger
	observer   DeliveryObserver

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a processor that replays entries from repo onto bus.
// A nil logger disables logging.
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox"),
	}
}

// SetObserver attaches a delivery observer; nil detaches it
func (p *OutboxProcessor) SetObserver(o DeliveryObserver) {
	p.observer = o
}

// Start launches the poll loop and, if enabled, the cleanup loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	if p.config.PollInterval <= 0 {
		return fmt.Errorf("outbox: poll interval must be positive, got %s", p.config.PollInterval)
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.run(ctx, p.config.PollInterval, func(ctx context.Context) {
		if res := p.ProcessBatch(ctx); res.Total() > 0 {
			p.logger.Debug("outbox batch processed",
				zap.Int("sent", res.Sent),
				zap.Int("retried", res.Retried),
				zap.Int("dead", res.Dead),
			)
		}
	})
	if p.config.CleanupEnabled && p.config.CleanupInterval > 0 {
		p.run(ctx, p.config.CleanupInterval, p.cleanup)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Bool("cleanup", p.config.CleanupEnabled),
	)
	return nil
}

// Stop cancels the loops and waits for the current batch, bounded by ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) run(ctx context.Context, every time.Duration, tick func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				tick(ctx)
			}
		}
	}()
}

// ProcessBatch delivers one batch of new entries, then one batch of entries
// whose retry time has come. It runs synchronously.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) BatchResult {
	var res BatchResult

	fresh, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending outbox entries", zap.Error(err))
		return res
	}
	p.deliver(ctx, fresh, &res)

	due, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable outbox entries", zap.Error(err))
		return res
	}
	p.deliver(ctx, due, &res)
	return res
}

func (p *OutboxProcessor) deliver(ctx context.Context, entries []*shared.OutboxEntry, res *BatchResult) {
	if len(entries) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	// another processor may have claimed some of them already
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Error(err))
		return
	}
	for _, entry := range claimed {
		outcome := p.attempt(ctx, entry)
		res.add(outcome)
		if p.observer != nil {
			p.observer.ObserveOutboxDelivery(entry.EventType, outcome)
		}
	}
}

// attempt publishes one entry and persists the resulting state
func (p *OutboxProcessor) attempt(ctx context.Context, entry *shared.OutboxEntry) string {
	log := p.logger.With(
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID.String()),
	)

	outcome := OutcomeSent
	pubErr := p.publish(ctx, entry)
	if pubErr != nil {
		entry.MarkFailed(pubErr.Error())
		outcome = OutcomeRetry
		if entry.IsDead() {
			outcome = OutcomeDead
		}
	} else {
		entry.MarkSent()
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		log.Error("failed to update outbox entry", zap.String("outcome", outcome), zap.Error(err))
		return outcome
	}

	switch outcome {
	case OutcomeSent:
		log.Debug("outbox entry delivered")
	case OutcomeRetry:
		log.Error("outbox delivery failed",
			zap.Int("retry_count", entry.RetryCount),
			zap.Timep("next_retry_at", entry.NextRetryAt),
			zap.Error(pubErr),
		)
	case OutcomeDead:
		log.Warn("outbox entry moved to dead letter",
			zap.String("aggregate_type", entry.AggregateType),
			zap.Int("retry_count", entry.RetryCount),
			zap.String("last_error", entry.LastError),
		)
	}
	return outcome
}

func (p *OutboxProcessor) publish(ctx context.Context, entry *shared.OutboxEntry) error {
	evt, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, evt)
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up outbox", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
}
