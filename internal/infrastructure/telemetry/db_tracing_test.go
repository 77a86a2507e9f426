package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   int
	Name string
}

func TestDBTracing_Register(t *testing.T) {
	recorder := installRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	core, logs := observer.New(zap.WarnLevel)
	require.NoError(t, NewDBTracing(1, zap.New(core)).Register(db))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{ID: 1, Name: "tee"}).Error)
	var got tracedRow
	require.NoError(t, db.WithContext(ctx).First(&got, 1).Error)

	assert.Equal(t, "tee", got.Name)
	assert.GreaterOrEqual(t, logs.FilterMessage("slow query").Len(), 2)

	var flagged []string
	for _, span := range recorder.Ended() {
		for _, kv := range span.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				flagged = append(flagged, span.Name())
			}
		}
	}
	assert.GreaterOrEqual(t, len(flagged), 2, "slow statements should be flagged on their own spans")
}

func TestTracedOperations_MatchOtelgormHooks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, NewDBTracing(time.Millisecond, nil).Register(db))

	cb := db.Callback()
	lookups := map[string]func(string) func(*gorm.DB){
		"create": cb.Create().Get,
		"select": cb.Query().Get,
		"update": cb.Update().Get,
		"delete": cb.Delete().Get,
		"row":    cb.Row().Get,
		"raw":    cb.Raw().Get,
	}
	for _, op := range TracedOperations {
		get := lookups[op]
		require.NotNil(t, get, op)
		assert.NotNil(t, get("otel:after:"+op), "otelgorm hook for %s", op)
		assert.NotNil(t, get("db_timing:after:"+op), "timing hook for %s", op)
	}
}

func TestDBTracing_NoThreshold(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	core, logs := observer.New(zap.WarnLevel)
	require.NoError(t, NewDBTracing(0, zap.New(core)).Register(db))
	require.NoError(t, db.Exec("SELECT 1").Error)

	assert.Zero(t, logs.Len())
}
