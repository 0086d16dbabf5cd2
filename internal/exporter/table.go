package exporter

import (
	"io"
	"log/slog"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// TableExporter writes normalized metric tables as CSV.
type TableExporter struct {
	writer *CSVWriter
	bom    bool
	logger *slog.Logger
}

// NewTableExporter creates an exporter. withBOM prefixes output with a
// UTF-8 byte order mark.
func NewTableExporter(withBOM bool, logger *slog.Logger) *TableExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableExporter{
		writer: NewCSVWriter(logger),
		bom:    withBOM,
		logger: logger.With(slog.String("component", "table_exporter")),
	}
}

// Export writes table to out. Rows are in date order; undated rows follow
// in their original order with an empty Date cell.
func (e *TableExporter) Export(out io.Writer, table *domain.MetricTable) error {
	headers, records := TableRecords(table)

	e.logger.Debug("exporting table",
		slog.String("network", table.Network),
		slog.Int("rows", len(records)))

	return e.writer.WriteCSV(out, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: e.bom,
	})
}

// ExportFile writes table to filePath.
func (e *TableExporter) ExportFile(filePath string, table *domain.MetricTable) error {
	headers, records := TableRecords(table)
	return e.writer.WriteFile(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: e.bom,
	})
}

// TableRecords builds the CSV header and records for table: Year, Month,
// Date and then every metric column the table carries, in canonical order.
func TableRecords(table *domain.MetricTable) ([]string, [][]string) {
	headers := []string{"Year", "Month", "Date"}
	if table == nil {
		return headers, nil
	}

	var metrics []domain.Metric
	for _, m := range domain.AllMetrics {
		if table.HasMetric(m) {
			metrics = append(metrics, m)
			headers = append(headers, string(m))
		}
	}

	rows := table.SortedByDate()
	for _, row := range table.Rows {
		if row.Date == nil {
			rows = append(rows, row)
		}
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		record = append(record, formatInt(row.Year), row.Month, formatDate(row.Date))
		for _, m := range metrics {
			record = append(record, formatFloat(row.Value(m)))
		}
		records = append(records, record)
	}
	return headers, records
}
