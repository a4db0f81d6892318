package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/goodsdist/backend/internal/infrastructure/config"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, config.TelemetryConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "test-service",
	}, "test", logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	// The gRPC exporter connects lazily, so no collector is needed.
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    time.Hour,
		ServiceName:       "test-service",
		Insecure:          true,
	}, "test", logger)
	require.NoError(t, err)

	assert.True(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))

	shutdownCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(shutdownCtx)
}
