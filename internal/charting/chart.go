// Package charting renders metric tables as PNG line charts.
package charting

import (
	"fmt"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 480
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// RenderLineChart draws one series per metric over the dated rows of table,
// in date order, and writes the PNG to w. Rows without a date are skipped.
func RenderLineChart(table *domain.MetricTable, metrics []domain.Metric, w io.Writer) error {
	return Render(table, metrics, w, Options{})
}

// Render is RenderLineChart with explicit options.
func Render(table *domain.MetricTable, metrics []domain.Metric, w io.Writer, opts Options) error {
	if len(metrics) == 0 {
		return errors.NewAppValidationError("select at least one metric")
	}

	rows := table.SortedByDate()
	if len(rows) < 2 {
		return errors.NewAppValidationError(
			fmt.Sprintf("at least two dated months are needed to draw a chart, found %d", len(rows)))
	}

	xs := make([]time.Time, len(rows))
	for i, row := range rows {
		xs[i] = *row.Date
	}

	series := make([]chart.Series, 0, len(metrics))
	minY, maxY := rows[0].Value(metrics[0]), rows[0].Value(metrics[0])
	for i, m := range metrics {
		ys := make([]float64, len(rows))
		for j, row := range rows {
			v := row.Value(m)
			ys[j] = v
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
		series = append(series, chart.TimeSeries{
			Name:    string(m),
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(chart.GetDefaultColor(i)),
		})
	}

	yAxis := chart.YAxis{
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		},
	}
	// A flat series has a zero-height range, which go-chart refuses.
	if minY == maxY {
		yAxis.Range = &chart.ContinuousRange{Min: minY - 1, Max: maxY + 1}
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	title := opts.Title
	if title == "" && table.Network != "" {
		title = table.Network + " monthly metrics"
	}

	ch := chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Month",
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
		},
		YAxis:  yAxis,
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
