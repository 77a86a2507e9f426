package event

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultIdempotencyTTL is how long a handled event id stays claimed
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStats counts what an IdempotentHandler did
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler skips events whose id it has already handled. It sits in
// front of side effects that must not repeat when the outbox redelivers an
// event because a sibling handler failed, such as a broker relay.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler; claims are namespaced by prefix
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, prefix string, logger *zap.Logger) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		prefix:  prefix,
		ttl:     DefaultIdempotencyTTL,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event id, runs the handler and releases the claim on failure
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := h.prefix + evt.EventID().String()

	claimed, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", evt.EventID().String()),
			zap.Error(err),
		)
	case !claimed:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		if releaseErr := h.store.Release(ctx, key); releaseErr != nil {
			h.logger.Warn("failed to release idempotency claim", zap.String("key", key), zap.Error(releaseErr))
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
