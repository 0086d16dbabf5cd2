package main

import (
	"log/slog"
	"os"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/app"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		_ = infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
