package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelConfigFromTelemetry(t *testing.T) {
	cfg := OTelConfigFromTelemetry(config.TelemetryConfig{
		ServiceName:    "dashboard-test",
		MetricsEnabled: true,
		TraceExporter:  "none",
		Environment:    "test",
	}, "2.0.0")

	assert.Equal(t, "dashboard-test", cfg.ServiceName)
	assert.Equal(t, "2.0.0", cfg.ServiceVersion)
	assert.Equal(t, "test", cfg.Environment)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
}

func TestInitializeOTel_PrometheusEndpoint(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordWorkbookLoad(context.Background(), metrics, "file", 20*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "workbook_loads")
	assert.Contains(t, rec.Body.String(), `source="file"`)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = false
	cfg.EnableMetrics = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.MeterOrNoop())
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func TestRecordHelpers(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordInsightRequest(ctx, metrics, "Facebook", true)
	RecordInsightRequest(ctx, metrics, "Facebook", true)
	RecordWorkbookLoad(ctx, metrics, "upload", time.Second, errors.New("bad zip"))

	// Nil metrics are ignored.
	RecordInsightRequest(ctx, nil, "Facebook", true)
	RecordWorkbookLoad(ctx, nil, "file", time.Second, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["insight_requests_total"])
	assert.Equal(t, int64(1), sums["workbook_loads_total"])
}

func TestSystemStats(t *testing.T) {
	stats := CollectSystemStats(time.Now().Add(-time.Minute))

	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.ProcessUptime, time.Minute)

	formatted := stats.FormatStats()
	assert.Contains(t, formatted, "heap_alloc")
	assert.Equal(t, "1m0s", formatted["uptime"])
}

func TestRegisterSystemMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	require.NoError(t, RegisterSystemMetrics(mp.Meter("test"), time.Now()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.ElementsMatch(t, []string{"system_goroutines", "system_heap_alloc_bytes", "system_uptime_seconds"}, names)
}
