// Package integration runs the storefront against a real PostgreSQL started
// with testcontainers. The schema comes from the embedded migrations.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

var (
	// Shared container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB represents a test database connection
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

func runPostgres(ctx context.Context, dbName string) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewSharedTestDB returns a connection to the package's shared container,
// migrated on first use and truncated before each test
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sharedContainerMu.Lock()
	if sharedContainer == nil {
		container, dsn, err := runPostgres(context.Background(), "storefront_test")
		if err != nil {
			sharedContainerMu.Unlock()
			require.NoError(t, err, "Failed to start PostgreSQL container")
		}
		sharedContainer = container
		sharedContainerDSN = dsn

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()
	}
	dsn := sharedContainerDSN
	sharedContainerMu.Unlock()

	db, sqlDB := connectToDatabase(t, dsn)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, t: t}
	tdb.CleanTables()
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return tdb
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error)
	}
}

// CreateProduct inserts an active product
func (tdb *TestDB) CreateProduct(name string, price int64, stock int) uuid.UUID {
	tdb.t.Helper()
	now := time.Now()
	m := &models.ProductModel{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		Category:      "test",
		StockQuantity: stock,
		IsActive:      true,
	}
	m.ID = uuid.New()
	m.CreatedAt = now
	m.UpdatedAt = now
	require.NoError(tdb.t, tdb.DB.Create(m).Error)
	return m.ID
}

// Stock reads a product's stock_quantity
func (tdb *TestDB) Stock(id uuid.UUID) int {
	tdb.t.Helper()
	var stock int
	require.NoError(tdb.t, tdb.DB.Raw("SELECT stock_quantity FROM products WHERE id = ?", id).Scan(&stock).Error)
	return stock
}

// Count counts rows in table matching the optional where clause
func (tdb *TestDB) Count(table, where string, args ...any) int64 {
	tdb.t.Helper()
	q := tdb.DB.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	var n int64
	require.NoError(tdb.t, q.Count(&n).Error)
	return n
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()
	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
		sharedContainer = nil
	}
}
