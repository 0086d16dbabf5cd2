package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WorkbookExt is the only workbook format the parser reads.
const WorkbookExt = ".xlsx"

// lockPrefix marks the owner files Excel leaves next to open workbooks.
const lockPrefix = "~$"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath. Relative directories
// passed to its methods are resolved against it.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindWorkbooks lists the .xlsx workbooks in dir, oldest first.
func (d *Discovery) FindWorkbooks(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsWorkbookName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// LatestWorkbook returns the most recently modified workbook in dir. ok is
// false when the directory holds none.
func (d *Discovery) LatestWorkbook(dir string) (FileInfo, bool, error) {
	files, err := d.FindWorkbooks(dir)
	if err != nil {
		return FileInfo{}, false, err
	}
	latest, ok := GetLatestFile(files)
	return latest, ok, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// IsWorkbookName reports whether name looks like a workbook the parser can
// open. Excel lock files are excluded.
func IsWorkbookName(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), WorkbookExt) && !strings.HasPrefix(base, lockPrefix)
}
