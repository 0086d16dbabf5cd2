package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/services"
)

type staticClients int

func (c staticClients) ClientCount() int { return int(c) }

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hs := services.NewHealthService(t.TempDir(), services.NewDatasetCache(logger), staticClients(2), logger)
	handler := NewHealthHandler(hs, logger)

	tests := []struct {
		name       string
		handle     http.HandlerFunc
		wantStatus string
	}{
		{name: "health", handle: handler.HealthCheck, wantStatus: "ok"},
		{name: "ready", handle: handler.ReadinessCheck, wantStatus: "ready"},
		{name: "live", handle: handler.LivenessCheck, wantStatus: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hs := services.NewHealthService(filepath.Join(t.TempDir(), "missing"), nil, staticClients(0), logger)
	handler := NewHealthHandler(hs, logger)

	rec := httptest.NewRecorder()
	handler.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestHealthHandler_Version(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHealthHandler(services.NewHealthService("", nil, nil, logger), logger)

	rec := httptest.NewRecorder()
	handler.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "go_version")
}
