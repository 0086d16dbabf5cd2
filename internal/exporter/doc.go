// Package exporter writes dashboard tables as CSV.
//
// CSVWriter is the low-level writer with optional UTF-8 BOM for Excel.
// TableExporter turns a normalized domain.MetricTable into rows ordered by
// date, for the export endpoint and the smreport export command.
package exporter
