package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialguard/internal/config"
)

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("exporters disabled", func(t *testing.T) {
		providers, err := InitializeOTel(config.TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
		}, logger)
		require.NoError(t, err)
		require.NotNil(t, providers)

		assert.Nil(t, providers.TracerProvider)
		assert.Nil(t, providers.MeterProvider)
		assert.Nil(t, providers.Registry)
		assert.NotNil(t, providers.Meter, "a no-op meter should still be available")

		assert.NoError(t, providers.Shutdown(context.Background()))
	})

	t.Run("stdout traces and prometheus metrics", func(t *testing.T) {
		providers, err := InitializeOTel(config.TelemetryConfig{
			ServiceName:    "trialguard-test",
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
		}, logger)
		require.NoError(t, err)

		assert.NotNil(t, providers.TracerProvider)
		assert.NotNil(t, providers.Tracer)
		assert.NotNil(t, providers.MeterProvider)
		assert.NotNil(t, providers.Registry)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, providers.Shutdown(ctx))
	})

	t.Run("unsupported exporters", func(t *testing.T) {
		_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger"}, logger)
		assert.Error(t, err)

		_, err = InitializeOTel(config.TelemetryConfig{MetricExporter: "statsd"}, logger)
		assert.Error(t, err)
	})
}

// TestWriteMetrics tests the Prometheus textfile output
func TestWriteMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	counter, err := providers.Meter.Int64Counter("test_events_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	path := filepath.Join(t.TempDir(), "nested", "trialguard.prom")
	require.NoError(t, providers.WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test_events_total")
	assert.Contains(t, string(data), "# TYPE")
}

func TestWriteMetrics_Noop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")

	var nilProviders *OTelProviders
	assert.NoError(t, nilProviders.WriteMetrics(path))
	assert.NoError(t, nilProviders.Shutdown(context.Background()))

	assert.NoError(t, (&OTelProviders{}).WriteMetrics(path))
	assert.NoFileExists(t, path)
}
