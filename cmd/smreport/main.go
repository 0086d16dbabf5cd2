// Command smreport prints insights, comparisons, charts and CSV exports for
// the IWA social media analytics workbook without starting the server.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
