package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

type fixedClients int

func (c fixedClients) ClientCount() int { return int(c) }

func TestHealthService_HealthCheck(t *testing.T) {
	cache := NewDatasetCache(nil)
	hs := NewHealthService(t.TempDir(), cache, fixedClients(0), nil)
	ctx := context.Background()

	status := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.Equal(t, "not_loaded", status.Services["dataset"].(ServiceHealth).Status)

	_, _, err := cache.Load(ctx, "k", func(context.Context) (*domain.Dataset, error) {
		return &domain.Dataset{Key: "k", Source: "a.xlsx", Networks: []string{"Facebook", "LinkedIn"}}, nil
	})
	require.NoError(t, err)

	dataset := hs.HealthCheck(ctx).Services["dataset"].(ServiceHealth)
	assert.Equal(t, "loaded", dataset.Status)
	assert.Equal(t, "a.xlsx (2 networks)", dataset.Message)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name    string
		dataDir string
		clients ClientCounter
		want    string
	}{
		{name: "ready", dataDir: t.TempDir(), clients: fixedClients(3), want: "ready"},
		{name: "no data dir configured", dataDir: "", clients: fixedClients(0), want: "ready"},
		{name: "missing data dir", dataDir: filepath.Join(t.TempDir(), "missing"), clients: fixedClients(0), want: "not_ready"},
		{name: "no hub", dataDir: t.TempDir(), clients: nil, want: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(tt.dataDir, NewDatasetCache(nil), tt.clients, nil)
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Contains(t, status.Services, "dataset")
		})
	}
}

func TestHealthService_WebSocketClientCount(t *testing.T) {
	hs := NewHealthService("", nil, fixedClients(3), nil)

	ws := hs.ReadinessCheck(context.Background()).Services["websocket"].(ServiceHealth)
	assert.Equal(t, "3 clients connected", ws.Message)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("", nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
	assert.Contains(t, live.Runtime, "heap_alloc")

	version := hs.Version()
	assert.Equal(t, contracts.Version, version["version"])
	assert.Equal(t, contracts.APIVersion, version["api_version"])
	assert.Contains(t, version, "start_time")
}
