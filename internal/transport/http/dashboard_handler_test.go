package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/charting"
	apierrors "github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/middleware"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/services"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDashboardService) Networks(ctx context.Context) ([]domain.NetworkSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NetworkSummary), args.Error(1)
}

func (m *MockDashboardService) Table(ctx context.Context, network string) (*domain.MetricTable, error) {
	args := m.Called(network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricTable), args.Error(1)
}

func (m *MockDashboardService) Insight(ctx context.Context, network, monthA, monthB string) (*domain.InsightReport, error) {
	args := m.Called(network, monthA, monthB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InsightReport), args.Error(1)
}

func (m *MockDashboardService) Comparison(ctx context.Context, network, monthA, monthB string) (*domain.ComparisonReport, error) {
	args := m.Called(network, monthA, monthB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComparisonReport), args.Error(1)
}

func (m *MockDashboardService) RenderChart(ctx context.Context, network string, metrics []domain.Metric, opts charting.Options, w io.Writer) error {
	args := m.Called(network, metrics, opts)
	if png, ok := args.Get(1).([]byte); ok {
		_, _ = w.Write(png)
	}
	return args.Error(0)
}

func (m *MockDashboardService) ExportCSV(ctx context.Context, network string, w io.Writer) error {
	args := m.Called(network)
	if body, ok := args.Get(1).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(0)
}

func (m *MockDashboardService) DefaultChartMetrics() []domain.Metric {
	return []domain.Metric{domain.MetricViews, domain.MetricFollowers}
}

func newTestRouter(t *testing.T, svc *MockDashboardService) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewDashboardHandler(svc, middleware.NewValidator(logger), 1<<20, logger, errorHandler)
	return handler.Routes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDashboardHandler_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockDashboardService)
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "no dataset",
			setupMock:      func(m *MockDashboardService) { m.On("Networks").Return(nil, services.ErrNoDataset) },
			path:           "/networks",
			expectedStatus: http.StatusNotFound,
			expectedCode:   "DATASET_NOT_LOADED",
		},
		{
			name: "unknown network",
			setupMock: func(m *MockDashboardService) {
				m.On("Table", "TikTok").Return(nil, services.ErrNetworkNotFound)
			},
			path:           "/networks/TikTok/table",
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NETWORK_NOT_FOUND",
		},
		{
			name: "unexpected error",
			setupMock: func(m *MockDashboardService) {
				m.On("Dataset").Return(nil, errors.New("disk on fire"))
			},
			path:           "/dataset",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, float64(tt.expectedStatus), body["status"])
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["error_code"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetNetworks(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Networks").Return([]domain.NetworkSummary{
		{Network: "Facebook", Rows: 3, Months: []string{"October", "November", "December"}},
		{Network: "LinkedIn", Rows: 2},
	}, nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])
}

func TestDashboardHandler_GetInsight(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Insight", "Facebook", "September", "").Return(&domain.InsightReport{
		Network:    "Facebook",
		MonthA:     "September",
		MonthB:     "November",
		Sufficient: true,
		Text:       "Facebook insights for September vs November: ...",
	}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/networks/Facebook/insight?month_a=September", nil)
	newTestRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "November", data["month_b"])
	assert.Equal(t, true, data["sufficient"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetComparison(t *testing.T) {
	pct := 20.0
	svc := new(MockDashboardService)
	svc.On("Comparison", "Instagram", "October", "November").Return(&domain.ComparisonReport{
		Network:    "Instagram",
		MonthA:     "October",
		MonthB:     "November",
		Sufficient: true,
		Rows: []domain.MetricComparison{
			{Metric: domain.MetricFollowers, MonthA: 100, MonthB: 120, Difference: 20, PercentChange: &pct},
			{Metric: domain.MetricPosts, MonthA: 0, MonthB: 3, Difference: 3},
		},
	}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/networks/Instagram/comparison?month_a=October&month_b=November", nil)
	newTestRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
	rows := body["data"].(map[string]interface{})["rows"].([]interface{})
	assert.Nil(t, rows[1].(map[string]interface{})["percent_change"])
}

func TestDashboardHandler_MonthValidation(t *testing.T) {
	svc := new(MockDashboardService)

	long := "Octoberrrrrrrrrrrrrrrrrrrrrrrrrrrrrrrr"
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/Facebook/insight?month_a="+long, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "month_a")
	svc.AssertNotCalled(t, "Insight", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardHandler_GetChart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	t.Run("explicit metrics", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("RenderChart", "LinkedIn",
			[]domain.Metric{domain.MetricComments, domain.MetricPosts},
			charting.Options{Width: 800}).Return(nil, png)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/networks/LinkedIn/chart.png?metrics=comments,%20Posts&width=800", nil)
		newTestRouter(t, svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, png, rec.Body.Bytes())
		svc.AssertExpectations(t)
	})

	t.Run("repeated metrics drawn once", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("RenderChart", "Facebook",
			[]domain.Metric{domain.MetricViews, domain.MetricFollowers},
			charting.Options{}).Return(nil, png)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/networks/Facebook/chart.png?metrics=Views,views,Followers,Views", nil)
		newTestRouter(t, svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("default metrics", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("RenderChart", "LinkedIn",
			[]domain.Metric{domain.MetricViews, domain.MetricFollowers},
			charting.Options{}).Return(nil, png)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/LinkedIn/chart.png", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown metric", func(t *testing.T) {
		svc := new(MockDashboardService)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/LinkedIn/chart.png?metrics=Views,Likes", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "metrics[1]")
	})

	t.Run("bad width", func(t *testing.T) {
		svc := new(MockDashboardService)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/LinkedIn/chart.png?width=wide", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not enough months", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("RenderChart", "LinkedIn", mock.Anything, mock.Anything).
			Return(apierrors.NewAppValidationError("at least two dated months are needed to draw a chart, found 1"), nil)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/LinkedIn/chart.png", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})
}

func TestDashboardHandler_ExportCSV(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("ExportCSV", "Facebook").Return(nil, "Year,Month,Date,Followers\n2023,October,2023-10-01,1000\n")

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networks/Facebook/export.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="facebook.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "2023,October")
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/dataset", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDashboardHandler_UploadDataset(t *testing.T) {
	content := []byte("PK\x03\x04 workbook bytes")

	t.Run("created", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Upload", "analytics.xlsx", content).Return(&domain.Dataset{
			Key:      "abc",
			Source:   "analytics.xlsx",
			LoadedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Networks: []string{"Facebook"},
		}, nil)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, multipartUpload(t, "file", "analytics.xlsx", content))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, "abc", data["key"])
		svc.AssertExpectations(t)
	})

	t.Run("wrong extension", func(t *testing.T) {
		svc := new(MockDashboardService)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, multipartUpload(t, "file", "analytics.csv", content))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "filename")
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("missing field", func(t *testing.T) {
		svc := new(MockDashboardService)

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, multipartUpload(t, "workbook", "analytics.xlsx", content))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Upload", "analytics.xlsx", content).
			Return(nil, apierrors.NewParsingError("failed to read workbook", errors.New("zip: not a valid zip file")))

		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, multipartUpload(t, "file", "analytics.xlsx", content))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "WORKBOOK_UNREADABLE", decodeBody(t, rec)["error_code"])
	})

	t.Run("too large", func(t *testing.T) {
		svc := new(MockDashboardService)

		big := bytes.Repeat([]byte("x"), 1<<20+multipartOverhead+1)
		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, multipartUpload(t, "file", "analytics.xlsx", big))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("wrong content type", func(t *testing.T) {
		svc := new(MockDashboardService)

		req := httptest.NewRequest(http.MethodPost, "/dataset", bytes.NewReader(content))
		req.Header.Set("Content-Type", "application/octet-stream")
		rec := httptest.NewRecorder()
		newTestRouter(t, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}
