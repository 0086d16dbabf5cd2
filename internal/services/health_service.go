package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts"
)

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	dataDir   string
	cache     *DatasetCache
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. cache and clients may be nil.
func NewHealthService(dataDir string, cache *DatasetCache, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("data_dir", dataDir))

	return &HealthService{
		dataDir:   dataDir,
		cache:     cache,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"dataset": hs.checkDataset(),
		},
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))
	return status
}

// ReadinessCheck returns readiness status. A missing dataset does not make
// the service unready: dashboards prompt for an upload instead.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"data":      hs.checkDataDir(),
			"dataset":   hs.checkDataset(),
			"websocket": hs.checkWebSocket(),
		},
	}

	for _, name := range []string{"data", "websocket"} {
		if sh, ok := status.Services[name].(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   infrastructure.CollectSystemStats(hs.startTime).FormatStats(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "not_loaded", Message: "no dataset cache"}
	}
	ds := hs.cache.Current()
	if ds == nil {
		return ServiceHealth{Status: "not_loaded", Message: "upload a workbook to begin"}
	}
	return ServiceHealth{
		Status:  "loaded",
		Message: fmt.Sprintf("%s (%d networks)", ds.Source, len(ds.Networks)),
		Uptime:  time.Since(ds.LoadedAt).Truncate(time.Second).String(),
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
		Uptime:  time.Since(hs.startTime).Truncate(time.Second).String(),
	}
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	if hs.dataDir == "" {
		return ServiceHealth{Status: "ready", Message: "no data directory configured"}
	}
	info, err := os.Stat(hs.dataDir)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data directory not accessible: %v", err),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data path is not a directory: %s", hs.dataDir),
		}
	}
	return ServiceHealth{Status: "ready", Message: "Data directory is accessible"}
}
