package infrastructure

import (
	"context"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a snapshot of process runtime statistics.
type SystemStats struct {
	GoRoutines    int64
	HeapAlloc     uint64
	HeapSys       uint64
	GCCount       uint32
	CPUCount      int
	ProcessUptime time.Duration
	Timestamp     time.Time
}

// CollectSystemStats reads the Go runtime statistics of this process.
func CollectSystemStats(startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     memStats.HeapAlloc,
		HeapSys:       memStats.HeapSys,
		GCCount:       memStats.NumGC,
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now(),
	}
}

// FormatStats returns a human-readable representation of system stats
func (stats *SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":     stats.GoRoutines,
		"heap_alloc":     humanize.Bytes(stats.HeapAlloc),
		"heap_sys":       humanize.Bytes(stats.HeapSys),
		"gc_count":       stats.GCCount,
		"cpu_count":      stats.CPUCount,
		"uptime":         stats.ProcessUptime.Truncate(time.Second).String(),
		"uptime_seconds": stats.ProcessUptime.Seconds(),
		"timestamp":      stats.Timestamp.Format(time.RFC3339),
	}
}

// RegisterSystemMetrics publishes goroutine, heap and uptime gauges on meter.
// Values are read from the runtime on every collection.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) error {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectSystemStats(startTime)
		o.ObserveInt64(goroutines, stats.GoRoutines)
		o.ObserveInt64(heapAlloc, int64(stats.HeapAlloc))
		o.ObserveFloat64(uptime, stats.ProcessUptime.Seconds())
		return nil
	}, goroutines, heapAlloc, uptime)
	return err
}
