package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

const metricExportInterval = 15 * time.Second

// MeterProvider owns the SDK meter provider and its OTLP exporter
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider installs a global OTLP meter provider. With telemetry
// disabled the global no-op provider stays in place.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry meter provider initialized", zap.Duration("export_interval", metricExportInterval))
	return mp, nil
}

// Meter returns a meter from the installed provider
func (mp *MeterProvider) Meter(name string) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return mp.provider.Meter(name)
}

// Shutdown flushes pending metrics
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// RegisterPoolMetrics reports database/sql pool statistics on every collection
func RegisterPoolMetrics(meter metric.Meter, db *sql.DB) (metric.Registration, error) {
	open, err := meter.Int64ObservableGauge("db.pool.open_connections",
		metric.WithDescription("Established connections, in use and idle"))
	if err != nil {
		return nil, err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return nil, err
	}
	idle, err := meter.Int64ObservableGauge("db.pool.idle",
		metric.WithDescription("Idle connections"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Connections waited for"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, idle, waits)
}
