package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	pub := NewOutboxPublisher(db, NewEventSerializer(), 3)

	evt := newPlacedEvent("user-1")
	require.NoError(t, pub.Publish(ctx, evt))
	require.NoError(t, pub.Publish(ctx))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, evt.EventID(), pending[0].EventID)
	assert.Equal(t, order.EventTypeOrderPlaced, pending[0].EventType)
	assert.Equal(t, order.AggregateTypeOrder, pending[0].AggregateType)
	assert.Equal(t, 3, pending[0].MaxRetries)
}

func TestOutboxPublisher_DefaultMaxRetries(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	require.NoError(t, NewOutboxPublisher(db, NewEventSerializer(), 0).Publish(ctx, newPlacedEvent("user-1")))

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, shared.DefaultMaxRetries, pending[0].MaxRetries)
}

func TestOutboxPublisher_TxPublisherRollsBackWithCaller(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	pub := NewOutboxPublisher(db, NewEventSerializer(), 0)
	rollback := errors.New("settlement failed")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := pub.TxPublisher(tx).Publish(ctx, newPlacedEvent("user-1")); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	counts, err := NewGormOutboxRepository(db).CountByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return pub.PublishWithTx(ctx, tx, newPlacedEvent("user-1"), newPlacedEvent("user-2"))
	}))
	counts, err = NewGormOutboxRepository(db).CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusPending])
}
