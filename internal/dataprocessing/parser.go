package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// dateLayouts are tried in order when a sheet carries its own Date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01-02-06",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"January 2006",
	"2006-January",
}

// Workbook is the raw content of an analytics workbook, one table per network
// in configured order.
type Workbook struct {
	Networks []string
	Tables   map[string]*domain.MetricTable
}

// Parser reads network sheets out of an analytics workbook.
type Parser struct {
	sheets []domain.NetworkSheet
	logger *slog.Logger
}

// NewParser creates a parser for the given sheet layout. An empty layout
// uses domain.DefaultNetworkSheets.
func NewParser(sheets []domain.NetworkSheet, logger *slog.Logger) *Parser {
	if len(sheets) == 0 {
		sheets = domain.DefaultNetworkSheets
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		sheets: sheets,
		logger: logger.With(slog.String("component", "workbook_parser")),
	}
}

// ParseFile opens the workbook at filePath and reads every configured sheet.
func (p *Parser) ParseFile(filePath string) (*Workbook, error) {
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("workbook %s", filePath))
		}
		return nil, errors.NewStorageError("failed to stat workbook", err)
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err).WithContext("path", filePath)
	}
	defer f.Close()

	return p.parse(f)
}

// ParseReader reads a workbook from r, typically an uploaded file.
func (p *Parser) ParseReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to read workbook", err)
	}
	defer f.Close()

	return p.parse(f)
}

func (p *Parser) parse(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{Tables: make(map[string]*domain.MetricTable, len(p.sheets))}

	for _, ns := range p.sheets {
		rows, err := f.GetRows(ns.Sheet)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("sheet %q not found in workbook", ns.Sheet), err).
				WithContext("network", ns.Network)
		}

		table, err := p.parseSheet(ns, rows)
		if err != nil {
			return nil, err
		}

		p.logger.Info("Parsed network sheet",
			slog.String("network", ns.Network),
			slog.String("sheet", ns.Sheet),
			slog.Int("rows", len(table.Rows)),
			slog.Int("metrics", len(table.Metrics)),
			slog.Bool("has_date", table.HasDate))

		wb.Networks = append(wb.Networks, ns.Network)
		wb.Tables[ns.Network] = table
	}

	return wb, nil
}

// columnMap records header positions; -1 means absent.
type columnMap struct {
	year, month, date int
	metrics           map[domain.Metric]int
}

func (p *Parser) parseSheet(ns domain.NetworkSheet, rows [][]string) (*domain.MetricTable, error) {
	table := &domain.MetricTable{Network: ns.Network}

	headerRow := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerRow = i
			break
		}
	}
	if headerRow == -1 {
		// An empty sheet is a valid, empty table.
		return table, nil
	}

	cols := mapColumns(rows[headerRow])
	if cols.date == -1 && (cols.year == -1 || cols.month == -1) {
		return nil, errors.NewParsingError(
			fmt.Sprintf("sheet %q needs Year and Month columns", ns.Sheet), nil).
			WithContext("header", rows[headerRow])
	}

	for _, m := range domain.AllMetrics {
		if _, ok := cols.metrics[m]; ok {
			table.Metrics = append(table.Metrics, m)
		}
	}
	table.HasDate = cols.date != -1

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		record := domain.MonthlyRow{
			Month:  cell(row, cols.month),
			Values: make(map[domain.Metric]float64, len(table.Metrics)),
		}
		if raw := cell(row, cols.year); raw != "" {
			year, err := strconv.Atoi(strings.TrimSuffix(strings.ReplaceAll(raw, ",", ""), ".0"))
			if err != nil || year <= 0 {
				// Left at zero: the row stays undated.
				p.logger.Warn("Unparseable year cell",
					slog.String("network", ns.Network),
					slog.Int("row", i+1),
					slog.String("value", raw))
			} else {
				record.Year = year
			}
		}
		if table.HasDate {
			record.Date = parseDate(cell(row, cols.date))
			if record.Date != nil {
				if record.Year == 0 {
					record.Year = record.Date.Year()
				}
				if record.Month == "" {
					record.Month = record.Date.Month().String()
				}
			}
		}

		for _, m := range table.Metrics {
			raw := cell(row, cols.metrics[m])
			v, ok := parseNumber(raw)
			if !ok && raw != "" {
				p.logger.Debug("Non-numeric metric cell coerced to zero",
					slog.String("network", ns.Network),
					slog.String("metric", string(m)),
					slog.Int("row", i+1),
					slog.String("value", raw))
			}
			record.Values[m] = v
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func mapColumns(header []string) columnMap {
	cols := columnMap{year: -1, month: -1, date: -1, metrics: make(map[domain.Metric]int)}
	for j, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case "year":
			cols.year = j
		case "month":
			cols.month = j
		case "date":
			cols.date = j
		default:
			if m, ok := domain.ParseMetric(name); ok {
				cols.metrics[m] = j
			}
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts thousands separators; blanks and junk become 0.
func parseNumber(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}
