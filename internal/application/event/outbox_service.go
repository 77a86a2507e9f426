package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// Dead letter page bounds
const (
	DefaultDeadLetterPageSize = 20
	MaxDeadLetterPageSize     = 100
)

// OutboxService inspects and requeues outbox entries, chiefly compensation
// requests that ran out of retries
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: logger}
}

// EntryView is an outbox entry without its payload
type EntryView struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Stats counts entries per status
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// DeadLetters pages entries in DEAD status
func (s *OutboxService) DeadLetters(ctx context.Context, page, pageSize int) (shared.Paginated[EntryView], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultDeadLetterPageSize
	}
	if pageSize > MaxDeadLetterPageSize {
		pageSize = MaxDeadLetterPageSize
	}

	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		return shared.Paginated[EntryView]{}, err
	}
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = toEntryView(e)
	}
	return shared.NewPaginated(views, total, page, pageSize), nil
}

// Retry moves one dead entry back to PENDING with a fresh retry budget
func (s *OutboxService) Retry(ctx context.Context, id uuid.UUID) (*EntryView, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Requeue(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("dead letter requeued",
		zap.String("entry_id", id.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID.String()),
	)
	view := toEntryView(entry)
	return &view, nil
}

// RetryAll requeues every dead entry and returns how many were reset.
// Update failures are logged and skipped.
func (s *OutboxService) RetryAll(ctx context.Context) (int64, error) {
	var count int64
	for {
		// requeued entries leave the DEAD set, so the first page always holds the next batch
		entries, _, err := s.repo.FindDead(ctx, 1, MaxDeadLetterPageSize)
		if err != nil {
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		var requeued int
		for _, entry := range entries {
			if err := entry.Requeue(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("failed to requeue dead letter",
					zap.String("entry_id", entry.ID.String()),
					zap.Error(err),
				)
				continue
			}
			requeued++
		}
		count += int64(requeued)
		if requeued == 0 || len(entries) < MaxDeadLetterPageSize {
			break
		}
	}

	s.logger.Info("dead letters requeued", zap.Int64("count", count))
	return count, nil
}

// Stats returns entry counts per status
func (s *OutboxService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

// IsNotFound reports whether err means the entry does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func toEntryView(e *shared.OutboxEntry) EntryView {
	return EntryView{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
