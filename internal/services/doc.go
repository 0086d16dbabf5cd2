// Package services holds the business logic between the transports (HTTP
// handlers, CLI commands) and the data processing core.
//
// # Available Services
//
//	- DashboardService: loads workbooks, caches the current dataset and
//	  serves tables, insights, comparisons, charts and CSV exports
//	- HealthService: health, readiness, liveness and version reports
//
// # Dataset lifecycle
//
// A dataset is identified by the SHA-256 of its workbook bytes. The
// DatasetCache keeps only the current dataset: storing a new key evicts the
// previous one, and concurrent loads of the same bytes are collapsed into a
// single parse.
//
// # Error Handling
//
// Services return sentinel errors (ErrNoDataset, ErrNetworkNotFound,
// ErrUploadTooLarge) or typed errors from internal/errors. Handlers map them
// to problem details; the CLI prints them and exits non-zero.
package services
