package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// Prometheus metric names
const (
	MetricHTTPRequestsTotal          = "storefront_http_requests_total"
	MetricHTTPRequestDurationSeconds = "storefront_http_request_duration_seconds"
	MetricSettlementsTotal           = "storefront_settlements_total"
	MetricSettlementDurationSeconds  = "storefront_settlement_duration_seconds"
	MetricCompensationsTotal         = "storefront_compensations_total"
	MetricOutboxEntries              = "storefront_outbox_entries"
	MetricOutboxDeliveriesTotal      = "storefront_outbox_deliveries_total"
)

// OutboxCounter counts outbox entries per delivery status
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// PrometheusMetrics holds the storefront collectors on a private registry.
// It satisfies the settlement service's metrics sink.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	settlements        *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	compensations      *prometheus.CounterVec
	outboxDeliveries   *prometheus.CounterVec
}

// NewPrometheusMetrics registers the storefront collectors plus the Go
// runtime and process collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDurationSeconds,
			Help:    "HTTP request latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSettlementsTotal,
			Help: "Order settlements by outcome and error kind",
		}, []string{"outcome", "kind"}),
		settlementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSettlementDurationSeconds,
			Help:    "Time to settle an order",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCompensationsTotal,
			Help: "Settlement compensations by outcome",
		}, []string{"outcome"}),
		outboxDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOutboxDeliveriesTotal,
			Help: "Outbox delivery attempts by event type and outcome",
		}, []string{"event_type", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.settlements,
		m.settlementDuration,
		m.compensations,
		m.outboxDeliveries,
	)
	return m
}

// ObserveHTTP records one served request
func (m *PrometheusMetrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveSettlement records a settlement attempt
func (m *PrometheusMetrics) ObserveSettlement(outcome, kind string, d time.Duration) {
	m.settlements.WithLabelValues(outcome, kind).Inc()
	m.settlementDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncCompensation records a compensation attempt
func (m *PrometheusMetrics) IncCompensation(outcome string) {
	m.compensations.WithLabelValues(outcome).Inc()
}

// ObserveOutboxDelivery records one outbox delivery attempt
func (m *PrometheusMetrics) ObserveOutboxDelivery(eventType, outcome string) {
	m.outboxDeliveries.WithLabelValues(eventType, outcome).Inc()
}

// WatchOutbox exposes outbox backlog per status, queried on each scrape
func (m *PrometheusMetrics) WatchOutbox(counter OutboxCounter, logger *zap.Logger) error {
	return m.registry.Register(&outboxCollector{
		counter: counter,
		logger:  logger,
		desc: prometheus.NewDesc(MetricOutboxEntries,
			"Outbox entries by delivery status", []string{"status"}, nil),
	})
}

// Registry returns the underlying registry
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type outboxCollector struct {
	counter OutboxCounter
	logger  *zap.Logger
	desc    *prometheus.Desc
}

var outboxStatuses = []shared.OutboxStatus{
	shared.OutboxStatusPending,
	shared.OutboxStatusProcessing,
	shared.OutboxStatusSent,
	shared.OutboxStatusFailed,
	shared.OutboxStatusDead,
}

func (c *outboxCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *outboxCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed to count outbox entries", zap.Error(err))
		}
		return
	}
	for _, status := range outboxStatuses {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}
