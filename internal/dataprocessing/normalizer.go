package dataprocessing

import (
	"strings"
	"time"

	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// monthOrdinals maps canonical English month names (lower-cased) to their ordinal.
var monthOrdinals = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// MonthOrdinal resolves a month name to its ordinal. Surrounding whitespace
// and case are ignored; anything other than the twelve English names fails.
func MonthOrdinal(name string) (time.Month, bool) {
	m, ok := monthOrdinals[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// MonthDate returns the first day of (year, month), or nil when the month
// name is not recognized or the year is missing (zero or negative).
func MonthDate(year int, month string) *time.Time {
	if year <= 0 {
		return nil
	}
	m, ok := MonthOrdinal(month)
	if !ok {
		return nil
	}
	d := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

// Normalize returns a table whose Date column is populated.
//
// A table that already has a Date column is returned as is. Otherwise each
// row gets the first day of its (Year, Month); rows whose month name cannot
// be mapped, or whose year is missing, keep a nil Date. Row order is preserved and the input is not
// modified.
func Normalize(table *domain.MetricTable) *domain.MetricTable {
	if table == nil {
		return &domain.MetricTable{HasDate: true}
	}
	if table.HasDate {
		return table
	}

	out := table.Clone()
	for i := range out.Rows {
		out.Rows[i].Date = MonthDate(out.Rows[i].Year, out.Rows[i].Month)
	}
	out.HasDate = true
	return out
}
