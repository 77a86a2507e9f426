package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that have already been handled, such as
// gateway callbacks that may be delivered more than once
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. Returns true if the key was newly
	// claimed, false if another caller already holds it.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the key can be processed again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
