package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// Summarizer describes the network tables of a dataset for listings.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer. A nil logger falls back to slog.Default.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

// Summarize returns one summary per network in dataset order.
func (s *Summarizer) Summarize(ctx context.Context, ds *domain.Dataset) []domain.NetworkSummary {
	if ds == nil {
		return []domain.NetworkSummary{}
	}

	summaries := make([]domain.NetworkSummary, 0, len(ds.Networks))
	for _, network := range ds.Networks {
		summaries = append(summaries, SummarizeTable(network, ds.Table(network)))
	}

	s.logger.DebugContext(ctx, "summarized dataset",
		slog.String("key", ds.Key),
		slog.Int("networks", len(summaries)))
	return summaries
}

// SummarizeTable describes a single table. First and last months come from
// the date-ordered rows, so undated rows never appear there.
func SummarizeTable(network string, table *domain.MetricTable) domain.NetworkSummary {
	summary := domain.NetworkSummary{
		Network: network,
		Metrics: []domain.Metric{},
		Months:  []string{},
	}
	if table == nil {
		return summary
	}

	table = Normalize(table)
	summary.Rows = table.Len()
	summary.Metrics = presentMetrics(table)
	if months := table.Months(); months != nil {
		summary.Months = months
	}
	if ordered := table.SortedByDate(); len(ordered) > 0 {
		summary.FirstMonth = ordered[0].Month
		summary.LastMonth = ordered[len(ordered)-1].Month
	}
	return summary
}
