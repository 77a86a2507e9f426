package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// TracedOperations are the gorm operations timed for slow-query reporting,
// named as otelgorm names its callbacks
var TracedOperations = []string{"create", "select", "update", "delete", "row", "raw"}

// DBTracing registers the otelgorm plugin and flags slow statements on
// their spans
type DBTracing struct {
	slowThreshold time.Duration
	logger        *zap.Logger
}

// NewDBTracing creates the tracing hook; statements slower than
// slowThreshold get a slow_query event
func NewDBTracing(slowThreshold time.Duration, logger *zap.Logger) *DBTracing {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracing{slowThreshold: slowThreshold, logger: logger}
}

// Register installs the plugin and timing callbacks on db. The after hooks
// run before otelgorm ends the statement span.
func (t *DBTracing) Register(db *gorm.DB) error {
	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName("storefront"), otelgorm.WithoutQueryVariables())); err != nil {
		return err
	}

	// Hook names follow otelgorm's "otel:after:<op>" so the timing hooks run
	// while the statement span is still open. Queries are "select" there.
	cb := db.Callback()
	register := map[string]func(before, after string) error{
		"create": func(b, a string) error {
			if err := cb.Create().Before("gorm:create").Register(b, t.before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Before("otel:after:create").Register(a, t.after)
		},
		"select": func(b, a string) error {
			if err := cb.Query().Before("gorm:query").Register(b, t.before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Before("otel:after:select").Register(a, t.after)
		},
		"update": func(b, a string) error {
			if err := cb.Update().Before("gorm:update").Register(b, t.before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Before("otel:after:update").Register(a, t.after)
		},
		"delete": func(b, a string) error {
			if err := cb.Delete().Before("gorm:delete").Register(b, t.before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(a, t.after)
		},
		"row": func(b, a string) error {
			if err := cb.Row().Before("gorm:row").Register(b, t.before); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Before("otel:after:row").Register(a, t.after)
		},
		"raw": func(b, a string) error {
			if err := cb.Raw().Before("gorm:raw").Register(b, t.before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(a, t.after)
		},
	}
	for _, op := range TracedOperations {
		if err := register[op]("db_timing:before:"+op, "db_timing:after:"+op); err != nil {
			return err
		}
	}

	t.logger.Info("database tracing enabled", zap.Duration("slow_query_threshold", t.slowThreshold))
	return nil
}

func (t *DBTracing) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *DBTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if t.slowThreshold <= 0 || elapsed < t.slowThreshold {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query", trace.WithAttributes(
		attribute.String("db.sql.table", db.Statement.Table),
		attribute.Int64("threshold_ms", t.slowThreshold.Milliseconds()),
	))

	fields := []zap.Field{
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", db.Statement.RowsAffected),
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		fields = append(fields, zap.Error(db.Error))
	}
	t.logger.Warn("slow query", fields...)
}
