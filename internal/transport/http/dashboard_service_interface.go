package http

import (
	"context"
	"io"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/charting"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers need
type DashboardServiceInterface interface {
	Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error)
	Dataset(ctx context.Context) (*domain.Dataset, error)
	Networks(ctx context.Context) ([]domain.NetworkSummary, error)
	Table(ctx context.Context, network string) (*domain.MetricTable, error)
	Insight(ctx context.Context, network, monthA, monthB string) (*domain.InsightReport, error)
	Comparison(ctx context.Context, network, monthA, monthB string) (*domain.ComparisonReport, error)
	RenderChart(ctx context.Context, network string, metrics []domain.Metric, opts charting.Options, w io.Writer) error
	ExportCSV(ctx context.Context, network string, w io.Writer) error
	DefaultChartMetrics() []domain.Metric
}
