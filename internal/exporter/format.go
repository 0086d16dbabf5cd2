package exporter

import (
	"strconv"
	"time"
)

// formatFloat writes metric values without trailing zeros: 1200 stays "1200",
// 12.5 stays "12.5".
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats a year; zero means unknown and is left blank.
func formatInt(i int) string {
	if i == 0 {
		return ""
	}
	return strconv.Itoa(i)
}

// formatDate renders a derived date as YYYY-MM-DD, or blank when absent.
func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}
