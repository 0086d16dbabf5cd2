// Package dataprocessing turns the IWA social-media analytics workbook into
// per-network metric tables and derives month-over-month insights from them.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads the network sheets of an Excel workbook into MetricTables
// 2. Normalizer: derives a first-of-month Date from Year and Month
// 3. InsightGenerator: compares two months and the first-vs-last trend
// 4. Compare/Summarizer: tabular month comparison and network listings
//
// # Usage
//
//	parser := dataprocessing.NewParser(domain.DefaultNetworkSheets, logger)
//	wb, err := parser.ParseFile("IWA SM Analytics.xlsx")
//	if err != nil {
//	    return err
//	}
//	text := dataprocessing.GenerateInsight(wb.Tables["Facebook"], "Facebook", "October", "November")
//
// # Data Flow
//
//	Excel File → Parser → MetricTable → Normalize → InsightGenerator → text
//
// Month matching for comparisons is by name only, so rows from different
// years that share a month name are pooled.
//
// # Error Handling
//
// Only the parser returns errors. Insufficient data for a comparison is
// reported as a narrative, not as an error.
package dataprocessing
