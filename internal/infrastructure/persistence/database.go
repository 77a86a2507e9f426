package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/infrastructure/config"
)

const defaultPingTimeout = 5 * time.Second

// Database is the gorm handle plus the pool behind it
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Option configures NewDatabase
type Option func(*options)

type options struct {
	logger      gormlogger.Interface
	pingTimeout time.Duration
}

// WithLogger routes gorm logs through l
func WithLogger(l gormlogger.Interface) Option {
	return func(o *options) { o.logger = l }
}

// WithPingTimeout bounds the startup ping
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) { o.pingTimeout = d }
}

// NewDatabase opens the postgres pool described by cfg and verifies it answers
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	return open(postgres.Open(cfg.DSN()), cfg, opts...)
}

func open(dialector gorm.Dialector, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := options{
		logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		pingTimeout: defaultPingTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	configurePool(pool, cfg)

	d := &Database{DB: gdb, sql: pool}
	ctx, cancel := context.WithTimeout(context.Background(), o.pingTimeout)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return d, nil
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// SQL exposes the pool for metrics and health checks
func (d *Database) SQL() *sql.DB {
	return d.sql
}

// PingContext satisfies the health check's pinger
func (d *Database) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *Database) Ping() error {
	return d.PingContext(context.Background())
}

func (d *Database) Close() error {
	return d.sql.Close()
}
