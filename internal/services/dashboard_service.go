package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/charting"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/config"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/dataprocessing"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/exporter"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/events"
)

// Load sources recorded on workbook load metrics.
const (
	SourceFile   = "file"
	SourceUpload = "upload"
)

// Notifier publishes dataset events to connected dashboards.
type Notifier interface {
	Broadcast(eventType string, data interface{})
}

// NoopNotifier discards every event.
type NoopNotifier struct{}

// Broadcast implements Notifier.
func (NoopNotifier) Broadcast(string, interface{}) {}

// DashboardService loads workbooks and answers the dashboard's questions
// about the current dataset.
type DashboardService struct {
	cfg        config.DashboardConfig
	parser     *dataprocessing.Parser
	insights   *dataprocessing.InsightGenerator
	summarizer *dataprocessing.Summarizer
	exporter   *exporter.TableExporter
	cache      *DatasetCache
	notifier   Notifier
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// NewDashboardService wires the data processing core behind a cache. A nil
// cache gets a fresh one; a nil notifier discards events; nil metrics
// disable metric recording.
func NewDashboardService(cfg config.DashboardConfig, cache *DatasetCache, notifier Notifier, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewDatasetCache(logger)
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	logger.Info("DashboardService initialized",
		slog.Int("networks", len(cfg.Networks)),
		slog.String("default_month_a", cfg.DefaultMonthA),
		slog.String("default_month_b", cfg.DefaultMonthB),
		slog.Int64("max_upload_bytes", cfg.MaxUploadBytes()))

	return &DashboardService{
		cfg:        cfg,
		parser:     dataprocessing.NewParser(cfg.Networks, logger),
		insights:   dataprocessing.NewInsightGenerator(logger),
		summarizer: dataprocessing.NewSummarizer(logger),
		exporter:   exporter.NewTableExporter(cfg.CSVWithBOM, logger),
		cache:      cache,
		notifier:   notifier,
		metrics:    metrics,
		tracer:     otel.Tracer(infrastructure.MeterName),
		logger:     logger.With(slog.String("component", "dashboard_service")),
		now:        time.Now,
	}
}

// LoadFile loads the workbook at path and makes it the current dataset.
func (s *DashboardService) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "DashboardService.LoadFile",
		trace.WithAttributes(attribute.String("workbook.path", path)))
	defer span.End()

	start := time.Now()
	key, err := fileKey(path)
	if err != nil {
		infrastructure.RecordWorkbookLoad(ctx, s.metrics, SourceFile, time.Since(start), err)
		return nil, err
	}

	ds, cached, err := s.cache.Load(ctx, key, func(ctx context.Context) (*domain.Dataset, error) {
		wb, err := s.parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return s.newDataset(key, path, wb), nil
	})
	infrastructure.RecordWorkbookLoad(ctx, s.metrics, SourceFile, time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load workbook",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "workbook loaded",
		slog.String("path", path),
		slog.String("key", shortKey(key)),
		slog.Bool("cached", cached),
		slog.Int("networks", len(ds.Networks)))
	return ds, nil
}

// Upload reads an uploaded workbook, replaces the current dataset with it
// and notifies dashboards when the dataset changed.
func (s *DashboardService) Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "DashboardService.Upload",
		trace.WithAttributes(attribute.String("workbook.name", name)))
	defer span.End()

	start := time.Now()
	data, err := s.readUpload(r)
	if err != nil {
		infrastructure.RecordWorkbookLoad(ctx, s.metrics, SourceUpload, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	key := DatasetKey(data)
	previous := s.cache.CurrentKey()

	ds, cached, err := s.cache.Load(ctx, key, func(ctx context.Context) (*domain.Dataset, error) {
		wb, err := s.parser.ParseReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return s.newDataset(key, name, wb), nil
	})
	infrastructure.RecordWorkbookLoad(ctx, s.metrics, SourceUpload, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "rejected workbook upload",
			slog.String("name", name),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "workbook uploaded",
		slog.String("name", name),
		slog.String("key", shortKey(key)),
		slog.Bool("cached", cached),
		slog.Int("bytes", len(data)))

	if key != previous {
		s.notifier.Broadcast(events.TypeDatasetReplaced, events.DatasetReplaced{
			Key:         ds.Key,
			PreviousKey: previous,
			Source:      ds.Source,
			Networks:    ds.Networks,
			LoadedAt:    ds.LoadedAt,
		})
	}
	return ds, nil
}

func (s *DashboardService) readUpload(r io.Reader) ([]byte, error) {
	limit := s.cfg.MaxUploadBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, ErrUploadTooLarge
		}
		return nil, errors.NewStorageError("failed to read upload", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	return data, nil
}

func (s *DashboardService) newDataset(key, source string, wb *dataprocessing.Workbook) *domain.Dataset {
	ds := &domain.Dataset{
		Key:      key,
		Source:   source,
		LoadedAt: s.now().UTC(),
		Networks: append([]string(nil), wb.Networks...),
		Tables:   make(map[string]*domain.MetricTable, len(wb.Networks)),
	}
	for _, network := range wb.Networks {
		ds.Tables[network] = dataprocessing.Normalize(wb.Tables[network])
	}
	return ds
}

// fileKey hashes the workbook at path without holding it in memory.
func fileKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError(fmt.Sprintf("workbook %s", path))
		}
		return "", errors.NewStorageError("failed to open workbook", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.NewStorageError("failed to read workbook", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Dataset returns the current dataset.
func (s *DashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	ds := s.cache.Current()
	if ds == nil {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Networks summarizes every network of the current dataset.
func (s *DashboardService) Networks(ctx context.Context) ([]domain.NetworkSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarizer.Summarize(ctx, ds), nil
}

// Table returns a copy of the normalized table of network. The lookup
// ignores case.
func (s *DashboardService) Table(ctx context.Context, network string) (*domain.MetricTable, error) {
	_, table, err := s.lookup(ctx, network)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

func (s *DashboardService) lookup(ctx context.Context, network string) (string, *domain.MetricTable, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return "", nil, err
	}
	want := strings.TrimSpace(network)
	for _, name := range ds.Networks {
		if strings.EqualFold(name, want) {
			table := ds.Table(name)
			if table == nil {
				table = &domain.MetricTable{Network: name, HasDate: true}
			}
			return name, table, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, network)
}

// Months resolves empty comparison months to the configured defaults.
func (s *DashboardService) Months(monthA, monthB string) (string, string) {
	monthA, monthB = strings.TrimSpace(monthA), strings.TrimSpace(monthB)
	if monthA == "" {
		monthA = s.cfg.DefaultMonthA
	}
	if monthB == "" {
		monthB = s.cfg.DefaultMonthB
	}
	return monthA, monthB
}

// Insight generates the narrative for network comparing monthA and monthB.
func (s *DashboardService) Insight(ctx context.Context, network, monthA, monthB string) (*domain.InsightReport, error) {
	name, table, err := s.lookup(ctx, network)
	if err != nil {
		return nil, err
	}
	monthA, monthB = s.Months(monthA, monthB)

	report := s.insights.Analyze(ctx, table, name, monthA, monthB)
	infrastructure.RecordInsightRequest(ctx, s.metrics, name, report.Sufficient)
	return report, nil
}

// Comparison sums each metric over monthA and monthB for network.
func (s *DashboardService) Comparison(ctx context.Context, network, monthA, monthB string) (*domain.ComparisonReport, error) {
	name, table, err := s.lookup(ctx, network)
	if err != nil {
		return nil, err
	}
	monthA, monthB = s.Months(monthA, monthB)

	rows, ok := dataprocessing.Compare(table, monthA, monthB)
	if rows == nil {
		rows = []domain.MetricComparison{}
	}
	return &domain.ComparisonReport{
		Network:    name,
		MonthA:     monthA,
		MonthB:     monthB,
		Sufficient: ok,
		Rows:       rows,
	}, nil
}

// Chart renders a PNG line chart of metrics for network at the default size.
func (s *DashboardService) Chart(ctx context.Context, network string, metrics []domain.Metric, w io.Writer) error {
	return s.RenderChart(ctx, network, metrics, charting.Options{}, w)
}

// RenderChart renders a PNG line chart with explicit options.
func (s *DashboardService) RenderChart(ctx context.Context, network string, metrics []domain.Metric, opts charting.Options, w io.Writer) error {
	name, table, err := s.lookup(ctx, network)
	if err != nil {
		return err
	}
	if opts.Title == "" {
		opts.Title = name
	}
	return charting.Render(table, metrics, w, opts)
}

// DefaultChartMetrics returns the configured chart selection.
func (s *DashboardService) DefaultChartMetrics() []domain.Metric {
	return s.cfg.ChartMetrics()
}

// ExportCSV writes the normalized table of network as CSV.
func (s *DashboardService) ExportCSV(ctx context.Context, network string, w io.Writer) error {
	_, table, err := s.lookup(ctx, network)
	if err != nil {
		return err
	}
	return s.exporter.Export(w, table)
}
