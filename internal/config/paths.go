package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved filesystem locations used by the dashboard.
type Paths struct {
	BaseDir         string
	DataDir         string
	LogsDir         string
	DefaultWorkbook string
}

// ResolvePaths turns the configured paths into absolute ones.
//
// Relative entries are joined to BaseDir; an empty BaseDir means the
// current working directory. A default workbook given as a bare file name
// is looked up in DataDir first and then in BaseDir, since the workbook is
// usually dropped next to the binary.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	p := &Paths{
		BaseDir: base,
		DataDir: resolve(base, c.Paths.DataDir),
		LogsDir: resolve(base, c.Paths.LogsDir),
	}

	if wb := c.Paths.DefaultWorkbook; wb != "" {
		switch {
		case filepath.IsAbs(wb):
			p.DefaultWorkbook = wb
		case FileExists(p.GetDataPath(wb)):
			p.DefaultWorkbook = p.GetDataPath(wb)
		default:
			p.DefaultWorkbook = filepath.Join(base, wb)
		}
	}

	return p, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// EnsureDirectories creates the data and logs directories if needed.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the path to a file in the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetDataPath returns the path to a file in the data directory.
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// LogPathResolution logs the resolved paths at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("default_workbook", p.DefaultWorkbook),
		slog.Bool("default_workbook_exists", FileExists(p.DefaultWorkbook)))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
