package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// InsightGenerator turns a network table into a short narrative comparing
// two months and the overall first-vs-last trend.
type InsightGenerator struct {
	logger *slog.Logger
}

// NewInsightGenerator creates a generator. A nil logger falls back to slog.Default.
func NewInsightGenerator(logger *slog.Logger) *InsightGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightGenerator{
		logger: logger.With(slog.String("component", "insight_generator")),
	}
}

// GenerateInsight is a convenience wrapper returning only the narrative text.
func GenerateInsight(table *domain.MetricTable, network, monthA, monthB string) string {
	return NewInsightGenerator(nil).Analyze(context.Background(), table, network, monthA, monthB).Text
}

// Analyze computes the pairwise and global directions for every metric the
// table carries and renders them into the report text.
func (g *InsightGenerator) Analyze(ctx context.Context, table *domain.MetricTable, network, monthA, monthB string) *domain.InsightReport {
	table = Normalize(table)

	report := &domain.InsightReport{
		Network: network,
		MonthA:  monthA,
		MonthB:  monthB,
	}

	selected := lo.Filter(table.Rows, func(row domain.MonthlyRow, _ int) bool {
		return row.Month == monthA || row.Month == monthB
	})
	distinct := lo.Uniq(lo.Map(selected, func(row domain.MonthlyRow, _ int) string {
		return row.Month
	}))
	if len(distinct) < 2 {
		g.logger.DebugContext(ctx, "insufficient data for month comparison",
			slog.String("network", network),
			slog.String("month_a", monthA),
			slog.String("month_b", monthB),
			slog.Int("matched_rows", len(selected)))
		report.Text = insufficientDataText(network, monthA, monthB)
		return report
	}
	report.Sufficient = true

	report.Pairwise = make(map[domain.Metric]domain.Direction, len(table.Metrics))
	for _, metric := range presentMetrics(table) {
		var sumA, sumB float64
		for _, row := range selected {
			if row.Month == monthA {
				sumA += row.Value(metric)
			} else {
				sumB += row.Value(metric)
			}
		}
		report.Pairwise[metric] = classify(sumA, sumB, domain.DirectionStable)
	}
	pairwise := pairwiseSentence(table, report.Pairwise, monthA, monthB)

	global := "Overall, no dated months were available to compute a trend."
	if ordered := table.SortedByDate(); len(ordered) > 0 {
		first, last := ordered[0], ordered[len(ordered)-1]
		report.FirstMonth = first.Month
		report.LastMonth = last.Month
		report.Global = make(map[domain.Metric]domain.Direction, len(table.Metrics))
		for _, metric := range presentMetrics(table) {
			report.Global[metric] = classify(first.Value(metric), last.Value(metric), domain.DirectionMixed)
		}
		global = globalSentence(table, report.Global, first.Month, last.Month)
	}

	report.Text = fmt.Sprintf("%s insights for %s vs %s: %s %s", network, monthA, monthB, pairwise, global)

	g.logger.DebugContext(ctx, "insight generated",
		slog.String("network", network),
		slog.String("month_a", monthA),
		slog.String("month_b", monthB),
		slog.String("first_month", report.FirstMonth),
		slog.String("last_month", report.LastMonth))

	return report
}

func insufficientDataText(network, monthA, monthB string) string {
	return fmt.Sprintf("Not enough data to compare %s and %s for %s: both months are required to compute insights.",
		monthA, monthB, network)
}

// classify compares to against from; equal values fall into the given bucket.
func classify(from, to float64, equal domain.Direction) domain.Direction {
	switch {
	case to > from:
		return domain.DirectionUp
	case to < from:
		return domain.DirectionDown
	default:
		return equal
	}
}

// presentMetrics returns the table's metric columns in canonical order.
func presentMetrics(table *domain.MetricTable) []domain.Metric {
	return lo.Filter(domain.AllMetrics, func(m domain.Metric, _ int) bool {
		return table.HasMetric(m)
	})
}

// namesWith lists the lower-cased names of metrics classified as dir.
func namesWith(table *domain.MetricTable, dirs map[domain.Metric]domain.Direction, dir domain.Direction) []string {
	var names []string
	for _, m := range presentMetrics(table) {
		if dirs[m] == dir {
			names = append(names, strings.ToLower(string(m)))
		}
	}
	return names
}

func pairwiseSentence(table *domain.MetricTable, dirs map[domain.Metric]domain.Direction, monthA, monthB string) string {
	var clauses []string
	if up := namesWith(table, dirs, domain.DirectionUp); len(up) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s increased from %s to %s", joinNames(up), monthA, monthB))
	}
	if down := namesWith(table, dirs, domain.DirectionDown); len(down) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s decreased from %s to %s", joinNames(down), monthA, monthB))
	}
	if stable := namesWith(table, dirs, domain.DirectionStable); len(stable) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s remained stable between %s and %s", joinNames(stable), monthA, monthB))
	}
	if len(clauses) == 0 {
		return fmt.Sprintf("Only small changes were observed between %s and %s.", monthA, monthB)
	}
	return strings.Join(clauses, "; ") + "."
}

func globalSentence(table *domain.MetricTable, dirs map[domain.Metric]domain.Direction, first, last string) string {
	var clauses []string
	if up := namesWith(table, dirs, domain.DirectionUp); len(up) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s grew from %s to %s", joinNames(up), first, last))
	}
	if down := namesWith(table, dirs, domain.DirectionDown); len(down) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s declined from %s to %s", joinNames(down), first, last))
	}
	if mixed := namesWith(table, dirs, domain.DirectionMixed); len(mixed) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s were mixed between %s and %s", joinNames(mixed), first, last))
	}
	if len(clauses) == 0 {
		return fmt.Sprintf("Overall, the trend from %s to %s was mixed with no clear pattern.", first, last)
	}
	return "Overall, " + strings.Join(clauses, "; ") + "."
}

// joinNames renders "a", "a and b" or "a, b and c".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
