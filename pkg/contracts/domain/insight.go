package domain

import "time"

// Direction classifies how a metric moved between two points.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
	// DirectionMixed is the equal bucket of the first-vs-last trend.
	DirectionMixed Direction = "mixed"
)

// InsightReport is the structured result behind an insight paragraph.
// It is computed on demand and never stored.
type InsightReport struct {
	Network    string               `json:"network"`
	MonthA     string               `json:"month_a"`
	MonthB     string               `json:"month_b"`
	Sufficient bool                 `json:"sufficient"`
	Pairwise   map[Metric]Direction `json:"pairwise,omitempty"`
	Global     map[Metric]Direction `json:"global,omitempty"`
	FirstMonth string               `json:"first_month,omitempty"`
	LastMonth  string               `json:"last_month,omitempty"`
	Text       string               `json:"text"`
}

// MetricComparison is one line of the month-vs-month comparison table.
// PercentChange is nil when the month A total is zero.
type MetricComparison struct {
	Metric        Metric   `json:"metric"`
	MonthA        float64  `json:"month_a"`
	MonthB        float64  `json:"month_b"`
	Difference    float64  `json:"difference"`
	PercentChange *float64 `json:"percent_change"`
}

// NetworkSheet binds a network label to the workbook sheet holding its data.
type NetworkSheet struct {
	Network string `json:"network" yaml:"network"`
	Sheet   string `json:"sheet" yaml:"sheet"`
}

// DefaultNetworkSheets is the sheet layout of the IWA analytics workbook.
var DefaultNetworkSheets = []NetworkSheet{
	{Network: "Facebook", Sheet: "FB Page"},
	{Network: "Instagram", Sheet: "Instagram"},
	{Network: "LinkedIn", Sheet: "LinkedIn"},
}

// Dataset is a loaded workbook: one normalized table per network.
type Dataset struct {
	Key      string                  `json:"key"`
	Source   string                  `json:"source"`
	LoadedAt time.Time               `json:"loaded_at"`
	Networks []string                `json:"networks"`
	Tables   map[string]*MetricTable `json:"-"`
}

// Table returns the table for network, or nil.
func (d *Dataset) Table(network string) *MetricTable {
	if d == nil {
		return nil
	}
	return d.Tables[network]
}

// NetworkSummary describes a network table for listings.
type NetworkSummary struct {
	Network    string   `json:"network"`
	Rows       int      `json:"rows"`
	Metrics    []Metric `json:"metrics"`
	Months     []string `json:"months"`
	FirstMonth string   `json:"first_month,omitempty"`
	LastMonth  string   `json:"last_month,omitempty"`
}

// ComparisonReport wraps the comparison rows with the months they contrast.
// Rows is empty when either month is missing from the table.
type ComparisonReport struct {
	Network    string             `json:"network"`
	MonthA     string             `json:"month_a"`
	MonthB     string             `json:"month_b"`
	Sufficient bool               `json:"sufficient"`
	Rows       []MetricComparison `json:"rows"`
}
