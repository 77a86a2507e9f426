package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "UPDATE products SET stock_quantity = stock_quantity - 1", 1 }

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{"error", gormlogger.Warn, time.Now(), errors.New("deadlock"), "SQL Error", zapcore.ErrorLevel},
		{"slow", gormlogger.Warn, time.Now().Add(-time.Second), nil, "Slow SQL", zapcore.WarnLevel},
		{"query at info", gormlogger.Info, time.Now(), nil, "SQL Query", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, 200*time.Millisecond)

			gl.Trace(context.Background(), tt.begin, sql, tt.err)

			entries := logs.All()
			assert.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
		})
	}

	t.Run("record not found is silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info, 0)
		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("silent mode", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info, 0).LogMode(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Zero(t, logs.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
