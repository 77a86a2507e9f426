package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

type fakeOutboxCounter struct {
	counts map[shared.OutboxStatus]int64
	err    error
}

func (f fakeOutboxCounter) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	return f.counts, f.err
}

func TestPrometheusMetrics_Settlement(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveSettlement("success", "", 120*time.Millisecond)
	m.ObserveSettlement("failed", "validation", 5*time.Millisecond)
	m.ObserveSettlement("failed", "validation", 5*time.Millisecond)
	m.IncCompensation("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements.WithLabelValues("failed", "validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("success")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.settlementDuration))
}

func TestPrometheusMetrics_OutboxDeliveries(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveOutboxDelivery("OrderPlaced", "sent")
	m.ObserveOutboxDelivery("OrderPlaced", "sent")
	m.ObserveOutboxDelivery("OrderCompensationRequested", "dead")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outboxDeliveries.WithLabelValues("OrderPlaced", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxDeliveries.WithLabelValues("OrderCompensationRequested", "dead")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.outboxDeliveries))
}

func TestPrometheusMetrics_HTTP(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveHTTP(http.MethodPost, "/api/v1/orders", http.StatusCreated, 30*time.Millisecond)
	m.ObserveHTTP(http.MethodPost, "/api/v1/orders", http.StatusUnprocessableEntity, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/orders", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/orders", "422")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestPrometheusMetrics_WatchOutbox(t *testing.T) {
	m := NewPrometheusMetrics()
	require.NoError(t, m.WatchOutbox(fakeOutboxCounter{counts: map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 3,
		shared.OutboxStatusDead:    1,
	}}, zap.NewNop()))

	expected := `
# HELP storefront_outbox_entries Outbox entries by delivery status
# TYPE storefront_outbox_entries gauge
storefront_outbox_entries{status="DEAD"} 1
storefront_outbox_entries{status="FAILED"} 0
storefront_outbox_entries{status="PENDING"} 3
storefront_outbox_entries{status="PROCESSING"} 0
storefront_outbox_entries{status="SENT"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), MetricOutboxEntries))
}

func TestPrometheusMetrics_WatchOutboxError(t *testing.T) {
	m := NewPrometheusMetrics()
	require.NoError(t, m.WatchOutbox(fakeOutboxCounter{err: errors.New("db down")}, nil))

	n, err := testutil.GatherAndCount(m.Registry(), MetricOutboxEntries)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.ObserveSettlement("success", "", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MetricSettlementsTotal)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
