package dataprocessing

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// Compare sums every metric over the rows of monthA and monthB (years pooled)
// and reports the difference and percentage change. ok is false when the
// table does not hold two distinct months to compare; a table holding both
// months but no metric columns is comparable with no rows.
func Compare(table *domain.MetricTable, monthA, monthB string) (rows []domain.MetricComparison, ok bool) {
	if table == nil {
		return nil, false
	}

	sumsA := make(map[domain.Metric]float64)
	sumsB := make(map[domain.Metric]float64)
	var seenA, seenB bool
	for _, row := range table.Rows {
		switch row.Month {
		case monthA:
			seenA = true
			for m, v := range row.Values {
				sumsA[m] += v
			}
		case monthB:
			seenB = true
			for m, v := range row.Values {
				sumsB[m] += v
			}
		}
	}
	if !seenA || !seenB || monthA == monthB {
		return nil, false
	}

	out := make([]domain.MetricComparison, 0, len(table.Metrics))
	for _, m := range presentMetrics(table) {
		c := domain.MetricComparison{
			Metric:     m,
			MonthA:     sumsA[m],
			MonthB:     sumsB[m],
			Difference: sumsB[m] - sumsA[m],
		}
		if c.MonthA != 0 {
			pct := c.Difference / c.MonthA * 100
			c.PercentChange = &pct
		}
		out = append(out, c)
	}
	return out, true
}

// FormatComparison renders a comparison as an aligned plain-text table with
// thousands separators.
func FormatComparison(rows []domain.MetricComparison, monthA, monthB string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %14s %14s %14s %10s\n", "Metric", monthA, monthB, "Difference", "Change %")
	for _, r := range rows {
		pct := "n/a"
		if r.PercentChange != nil {
			pct = humanize.CommafWithDigits(math.Round(*r.PercentChange*10)/10, 1)
		}
		fmt.Fprintf(&b, "%-14s %14s %14s %14s %10s\n",
			r.Metric,
			humanize.Commaf(math.Round(r.MonthA)),
			humanize.Commaf(math.Round(r.MonthB)),
			humanize.Commaf(math.Round(r.Difference)),
			pct)
	}
	return b.String()
}
