// Package api contains the request contracts of the dashboard HTTP API.
// Version v1 is the current API version.
package api

// MonthPairQuery selects the two months contrasted by insight and
// comparison endpoints. Empty values fall back to the configured defaults.
type MonthPairQuery struct {
	MonthA string `json:"month_a" query:"month_a" validate:"omitempty,max=32"`
	MonthB string `json:"month_b" query:"month_b" validate:"omitempty,max=32"`
}

// ChartQuery selects the metrics drawn on a line chart. An empty list
// falls back to the configured default selection.
type ChartQuery struct {
	Metrics []string `json:"metrics" query:"metrics" validate:"omitempty,max=5,dive,metric"`
	Width   int      `json:"width" query:"width" validate:"omitempty,min=200,max=4096"`
	Height  int      `json:"height" query:"height" validate:"omitempty,min=150,max=4096"`
}

// UploadRequest describes a workbook upload.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,workbook"`
	Size     int64  `json:"size" validate:"min=1"`
}
