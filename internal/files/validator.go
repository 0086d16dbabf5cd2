package files

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
)

// zipSignature opens every .xlsx file, which is a zip container.
var zipSignature = []byte("PK\x03\x04")

// WorkbookValidator checks workbook and output paths before they are used
type WorkbookValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewWorkbookValidator creates a validator. maxBytes <= 0 disables the size
// check.
func NewWorkbookValidator(maxBytes int64, logger *slog.Logger) *WorkbookValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookValidator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "workbook_validator")),
	}
}

// ValidateWorkbook checks that path names a readable .xlsx file within the
// size limit. Missing files are NOT_FOUND errors, content that is not a zip
// container is a PARSING error and everything else is a VALIDATION error.
func (v *WorkbookValidator) ValidateWorkbook(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Workbook does not exist", slog.String("file", path))
		return errors.NewNotFoundError(fmt.Sprintf("workbook %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat workbook",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a workbook", path))
	}
	if !IsWorkbookName(path) {
		v.logger.Error("File is not an .xlsx workbook",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return errors.NewAppValidationError(fmt.Sprintf("%s is not an %s workbook", path, WorkbookExt))
	}
	if v.maxBytes > 0 && info.Size() > v.maxBytes {
		return errors.NewAppValidationError(fmt.Sprintf("%s is %s, above the %s limit",
			path, humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(v.maxBytes))))
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("workbook %s is not readable", path), err)
	}
	defer f.Close()

	head := make([]byte, len(zipSignature))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipSignature) {
		return errors.NewParsingError(fmt.Sprintf("%s is not an Excel workbook", path), err).
			WithContext("path", path)
	}

	v.logger.Debug("Workbook validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputPath checks that path can be written: its directory exists
// and path itself is not a directory.
func (v *WorkbookValidator) ValidateOutputPath(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory", path))
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return errors.NewNotFoundError(fmt.Sprintf("output directory %s", dir))
	}
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to stat %s", dir), err)
	}
	if !info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}
	return nil
}
