package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{})
	require.NoError(t, err)

	core := lp.Core("storefront", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, min: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("component", "settlement"))

	log.Info("dropped")
	log.Warn("kept")
	log.Error("also kept")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "settlement", logs.All()[0].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}
