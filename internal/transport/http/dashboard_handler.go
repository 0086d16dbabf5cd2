package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/samber/lo"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/charting"
	apierrors "github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/middleware"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/services"
	api "github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/api/v1"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// multipartOverhead is allowed on top of the workbook limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// uploadField is the multipart field carrying the workbook.
const uploadField = "file"

// DashboardHandler serves the dataset, network, insight, chart and export endpoints
type DashboardHandler struct {
	service        DashboardServiceInterface
	validator      *middleware.Validator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler. maxUploadBytes bounds
// the workbook size accepted by POST /dataset.
func NewDashboardHandler(service DashboardServiceInterface, validator *middleware.Validator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
	}
}

// RegisterRoutes adds the dashboard routes to r
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.With(
		middleware.ContentTypeValidator("multipart/form-data"),
		middleware.MaxBodySize(h.maxUploadBytes+multipartOverhead),
	).Post("/dataset", h.UploadDataset)
	r.Get("/dataset", h.GetDataset)
	r.Get("/networks", h.GetNetworks)

	r.Route("/networks/{network}", func(r chi.Router) {
		r.Use(h.NetworkCtx)
		r.Get("/table", h.GetTable)
		r.Get("/insight", h.GetInsight)
		r.Get("/comparison", h.GetComparison)
		r.Get("/chart.png", h.GetChart)
		r.Get("/export.csv", h.ExportCSV)
	})
}

// Routes returns the dashboard routes as a standalone router
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// NetworkCtx validates the network URL parameter
func (h *DashboardHandler) NetworkCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		network := strings.TrimSpace(chi.URLParam(r, "network"))
		if network == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("network", "Network name is required"))
			return
		}
		if len(network) > 64 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("network", "Network name is too long"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UploadDataset handles POST /api/dataset
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isBodyTooLarge(err) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField,
			fmt.Sprintf("multipart field %q with an .xlsx workbook is required", uploadField)))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateStruct(api.UploadRequest{Filename: header.Filename, Size: header.Size}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	ds, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ds,
	})
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Dataset(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ds,
	})
}

// GetNetworks handles GET /api/networks
func (h *DashboardHandler) GetNetworks(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Networks(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summaries,
		"count":  len(summaries),
	})
}

// GetTable handles GET /api/networks/{network}/table
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")

	table, err := h.service.Table(r.Context(), network)
	if err != nil {
		h.handleServiceError(w, r, err, network)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  table.Len(),
	})
}

// GetInsight handles GET /api/networks/{network}/insight
func (h *DashboardHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	query, ok := h.monthPair(w, r)
	if !ok {
		return
	}

	report, err := h.service.Insight(r.Context(), network, query.MonthA, query.MonthB)
	if err != nil {
		h.handleServiceError(w, r, err, network)
		return
	}

	h.logger.DebugContext(r.Context(), "insight served",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("network", report.Network),
		slog.Bool("sufficient", report.Sufficient))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// GetComparison handles GET /api/networks/{network}/comparison
func (h *DashboardHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	query, ok := h.monthPair(w, r)
	if !ok {
		return
	}

	report, err := h.service.Comparison(r.Context(), network, query.MonthA, query.MonthB)
	if err != nil {
		h.handleServiceError(w, r, err, network)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
		"count":  len(report.Rows),
	})
}

// GetChart handles GET /api/networks/{network}/chart.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")

	query, err := parseChartQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	metrics := h.service.DefaultChartMetrics()
	if len(query.Metrics) > 0 {
		metrics = make([]domain.Metric, 0, len(query.Metrics))
		for _, name := range query.Metrics {
			m, _ := domain.ParseMetric(name)
			metrics = append(metrics, m)
		}
		metrics = lo.Uniq(metrics)
	}

	// Render into a buffer so failures still produce a problem document.
	var buf bytes.Buffer
	opts := charting.Options{Width: query.Width, Height: query.Height}
	if err := h.service.RenderChart(r.Context(), network, metrics, opts, &buf); err != nil {
		h.handleServiceError(w, r, err, network)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ExportCSV handles GET /api/networks/{network}/export.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), network, &buf); err != nil {
		h.handleServiceError(w, r, err, network)
		return
	}

	filename := strings.ToLower(strings.TrimSpace(network)) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *DashboardHandler) monthPair(w http.ResponseWriter, r *http.Request) (api.MonthPairQuery, bool) {
	q := r.URL.Query()
	query := api.MonthPairQuery{
		MonthA: strings.TrimSpace(q.Get("month_a")),
		MonthB: strings.TrimSpace(q.Get("month_b")),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return query, false
	}
	return query, true
}

// parseChartQuery accepts metrics as a comma-separated list, repeated
// parameters, or both.
func parseChartQuery(r *http.Request) (api.ChartQuery, error) {
	q := r.URL.Query()
	var query api.ChartQuery

	for _, raw := range q["metrics"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				query.Metrics = append(query.Metrics, name)
			}
		}
	}

	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &query.Width}, {"height", &query.Height}} {
		raw := strings.TrimSpace(q.Get(dim.name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierrors.ErrValidation(dim.name, "must be an integer number of pixels")
		}
		*dim.dst = v
	}
	return query, nil
}

// handleServiceError maps service errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, network string) {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoDataset)
	case errors.Is(err, services.ErrNetworkNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NetworkNotFound(network))
	case errors.Is(err, services.ErrUploadTooLarge):
		h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
	case errors.Is(err, services.ErrEmptyUpload):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "Uploaded workbook is empty"))
	case apierrors.IsType(err, apierrors.ErrTypeParsing):
		h.errorHandler.HandleError(w, r, apierrors.UnreadableWorkbook(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
