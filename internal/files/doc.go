// Package files locates and checks workbook files on disk.
//
// Discovery finds .xlsx workbooks in a directory, skipping Excel lock files,
// so the server can fall back to the newest workbook in its data directory.
//
// WorkbookValidator rejects paths that cannot be a readable workbook before
// they reach the parser: missing files, directories, wrong extensions,
// oversized files and content without the zip signature every .xlsx carries.
// It also checks output paths for the command line exports.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	latest, ok, err := discovery.LatestWorkbook(paths.DataDir)
//
//	validator := files.NewWorkbookValidator(cfg.Dashboard.MaxUploadBytes(), logger)
//	if err := validator.ValidateWorkbook(latest.Path); err != nil {
//	    return err
//	}
package files
