package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.False(t, tp.spanProfilesEnabled)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("storefront-test")
	require.NoError(t, err)
	assert.Contains(t, res.String(), "service.name=storefront-test")
}
