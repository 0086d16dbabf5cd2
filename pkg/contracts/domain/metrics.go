package domain

import (
	"sort"
	"strings"
	"time"
)

// Metric names a monthly count column in a network sheet.
type Metric string

const (
	MetricFollowers    Metric = "Followers"
	MetricViews        Metric = "Views"
	MetricPosts        Metric = "Posts"
	MetricInteractions Metric = "Interactions"
	MetricComments     Metric = "Comments"
)

// AllMetrics lists the metric columns in their canonical sheet order.
var AllMetrics = []Metric{
	MetricFollowers,
	MetricViews,
	MetricPosts,
	MetricInteractions,
	MetricComments,
}

// DefaultChartMetrics is the preset selection for line charts.
var DefaultChartMetrics = []Metric{MetricViews, MetricFollowers}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(name string) (Metric, bool) {
	name = strings.TrimSpace(name)
	for _, m := range AllMetrics {
		if strings.EqualFold(string(m), name) {
			return m, true
		}
	}
	return "", false
}

// MonthlyRow is one (Year, Month) observation for a network.
type MonthlyRow struct {
	Year   int                `json:"year"`
	Month  string             `json:"month"`
	Date   *time.Time         `json:"date"`
	Values map[Metric]float64 `json:"values"`
}

// Value returns the row's value for m, zero when absent.
func (r MonthlyRow) Value(m Metric) float64 {
	return r.Values[m]
}

// MetricTable holds the monthly rows of a single network.
// HasDate reports whether the Date column is populated (either read from
// the sheet or derived by normalization).
type MetricTable struct {
	Network string       `json:"network"`
	Metrics []Metric     `json:"metrics"`
	HasDate bool         `json:"has_date"`
	Rows    []MonthlyRow `json:"rows"`
}

// HasMetric reports whether the table carries a column for m.
func (t *MetricTable) HasMetric(m Metric) bool {
	for _, have := range t.Metrics {
		if have == m {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *MetricTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Clone returns a deep copy of the table.
func (t *MetricTable) Clone() *MetricTable {
	if t == nil {
		return nil
	}
	out := &MetricTable{
		Network: t.Network,
		Metrics: append([]Metric(nil), t.Metrics...),
		HasDate: t.HasDate,
		Rows:    make([]MonthlyRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.clone()
	}
	return out
}

func (r MonthlyRow) clone() MonthlyRow {
	c := MonthlyRow{Year: r.Year, Month: r.Month}
	if r.Date != nil {
		d := *r.Date
		c.Date = &d
	}
	if r.Values != nil {
		c.Values = make(map[Metric]float64, len(r.Values))
		for k, v := range r.Values {
			c.Values[k] = v
		}
	}
	return c
}

// SortedByDate returns the rows that carry a date, in ascending date order.
// Rows with a nil Date are dropped. The sort is stable so rows sharing a
// date keep their sheet order.
func (t *MetricTable) SortedByDate() []MonthlyRow {
	if t == nil {
		return nil
	}
	dated := make([]MonthlyRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Date != nil {
			dated = append(dated, row)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(*dated[j].Date)
	})
	return dated
}

// Months returns the distinct month names in first-seen order.
func (t *MetricTable) Months() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool, len(t.Rows))
	var months []string
	for _, row := range t.Rows {
		if !seen[row.Month] {
			seen[row.Month] = true
			months = append(months, row.Month)
		}
	}
	return months
}
