package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/config"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/shared/testutil"
	ws "github.com/smperez989-stack/IWA-SMDashboard/internal/websocket"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TracingEnabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	return app, handler
}

func uploadRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "IWA SM Analytics.xlsx")
	require.NoError(t, err)
	_, err = part.Write(testutil.WorkbookBytes(t, testutil.AnalyticsSheets()))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestNew_CreatesDirectories(t *testing.T) {
	cfg := testConfig(t)
	app, _ := newTestApp(t, cfg)

	assert.DirExists(t, app.Paths.DataDir)
	assert.DirExists(t, app.Paths.LogsDir)
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
	assert.NotNil(t, app.Services.Dashboard)
	assert.NotNil(t, app.Services.Health)
	assert.NotNil(t, app.Metrics)
}

func TestApplication_HealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	tests := []struct {
		path   string
		status string
	}{
		{"/api/health", "ok"},
		{"/api/health/live", "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tt.status, decodeBody(t, rec.Body)["status"])
		})
	}

	t.Run("version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "v1", decodeBody(t, rec.Body)["api_version"])
	})
}

func TestApplication_NoDatasetAndUnknownRoutes(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/networks", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")
	assert.Equal(t, "DATASET_NOT_LOADED", decodeBody(t, rec.Body)["error_code"])

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/networks", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestApplication_UploadAndQuery(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/api/dataset"))
	require.NoError(t, err)
	body := decodeBody(t, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "IWA SM Analytics.xlsx", data["source"])
	assert.Len(t, data["networks"], 3)

	resp, err = http.Get(srv.URL + "/api/networks")
	require.NoError(t, err)
	body = decodeBody(t, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["count"])

	resp, err = http.Get(srv.URL + "/api/networks/facebook/insight?month_a=October&month_b=November")
	require.NoError(t, err)
	body = decodeBody(t, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	insight := body["data"].(map[string]interface{})
	assert.Equal(t, "Facebook", insight["network"])
	assert.Equal(t, true, insight["sufficient"])
	assert.NotEmpty(t, insight["text"])

	resp, err = http.Get(srv.URL + "/api/networks/Facebook/chart.png?metrics=Views,Followers")
	require.NoError(t, err)
	png, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	resp, err = http.Get(srv.URL + "/api/networks/Facebook/export.csv")
	require.NoError(t, err)
	csv, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(csv), "Year,Month,Date,"))

	resp, err = http.Get(srv.URL + "/api/networks/TikTok/table")
	require.NoError(t, err)
	body = decodeBody(t, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NETWORK_NOT_FOUND", body["error_code"])
}

func TestApplication_MetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/api/dataset"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	exposition, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(exposition), "workbook_loads")
	assert.Contains(t, string(exposition), "http_requests")
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = false
	app, _ := newTestApp(t, cfg)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_WebSocketReceivesDatasetReplaced(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	app.WebSocketHub.Start()
	defer app.WebSocketHub.Stop()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, ws.TypeConnection, read().Type)

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/api/dataset"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	event := read()
	assert.Equal(t, ws.TypeDatasetReplaced, event.Type)
	data := event.Data.(map[string]interface{})
	assert.NotEmpty(t, data["key"])
	assert.Len(t, data["networks"], 3)
}

func TestApplication_StartLoadsDefaultWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.LoadOnStart = true
	cfg.Paths.DefaultWorkbook = testutil.WriteWorkbook(t, "IWA SM Analytics.xlsx", testutil.AnalyticsSheets())

	app, handler := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))
	defer func() { assert.NoError(t, app.Stop(context.Background())) }()

	assert.True(t, handler.ContainsMessage("Default workbook loaded"))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec.Body)["data"].(map[string]interface{})
	assert.Equal(t, filepath.Base(cfg.Paths.DefaultWorkbook), filepath.Base(data["source"].(string)))
}

func TestApplication_StartWithoutWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.LoadOnStart = true

	app, handler := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))
	defer func() { assert.NoError(t, app.Stop(context.Background())) }()

	assert.True(t, handler.ContainsMessage("Default workbook not found, waiting for upload"))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_StartFallsBackToLatestWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.LoadOnStart = true

	app, handler := newTestApp(t, cfg)
	path := filepath.Join(app.Paths.DataDir, "analytics-export.xlsx")
	require.NoError(t, os.WriteFile(path, testutil.WorkbookBytes(t, testutil.AnalyticsSheets()), 0o644))

	app.LoadDefaultWorkbook(context.Background())

	assert.True(t, handler.ContainsMessage("using latest workbook in data directory"))
	ds, err := app.Services.Dashboard.Dataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)
}

func TestApplication_StartRejectsInvalidWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.LoadOnStart = true

	app, handler := newTestApp(t, cfg)
	require.NoError(t, os.WriteFile(filepath.Join(app.Paths.DataDir, "broken.xlsx"), []byte("not a zip"), 0o644))

	app.LoadDefaultWorkbook(context.Background())

	assert.True(t, handler.ContainsMessage("Default workbook rejected"))
	_, err := app.Services.Dashboard.Dataset(context.Background())
	assert.Error(t, err)
}
