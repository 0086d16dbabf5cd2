// Package shared holds helpers used across the dashboard packages.
//
// The testutil subpackage provides a capturing slog handler and builders
// for analytics workbooks so tests can exercise the real Excel parser
// without fixture files on disk.
package shared
