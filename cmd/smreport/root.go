package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/config"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/files"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/services"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	file       string
	configPath string
	verbose    bool
}

// session is the loaded workbook every subcommand works on.
type session struct {
	cfg       *config.Config
	service   *services.DashboardService
	validator *files.WorkbookValidator
	dataset   *domain.Dataset
	logger    *slog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	s := &session{}

	cmd := &cobra.Command{
		Use:   "smreport",
		Short: "Report on the IWA social media analytics workbook",
		Long: `smreport reads the IWA social media analytics workbook and prints the
same insights, comparisons, charts and CSV exports the dashboard serves.

Examples:
  smreport insights
  smreport insights --network Facebook --month-a October --month-b November
  smreport compare --network Instagram
  smreport chart --network LinkedIn --metrics Views,Followers --out linkedin.png
  smreport export --network Facebook --out facebook.csv`,
		Version:      contracts.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd.Context(), opts, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "",
		fmt.Sprintf("workbook to read (default %q from the data directory)", config.DefaultWorkbookName))
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default: first of the standard locations)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	cmd.AddCommand(
		newInsightsCommand(s),
		newCompareCommand(s),
		newChartCommand(s),
		newExportCommand(s),
	)
	return cmd
}

// open loads the configuration and the workbook. Logs go to stderr so that
// stdout carries only the report.
func (s *session) open(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	var err error
	if opts.configPath != "" {
		s.cfg, err = config.LoadFrom(opts.configPath)
	} else {
		s.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := s.cfg.Logging
	if !opts.verbose {
		logCfg.Level = "error"
	}
	s.logger = infrastructure.WithComponent(infrastructure.NewLogger(logCfg, stderr), "smreport")

	path := opts.file
	if path == "" {
		paths, err := s.cfg.ResolvePaths()
		if err != nil {
			return err
		}
		path = paths.DefaultWorkbook
	}

	s.validator = files.NewWorkbookValidator(s.cfg.Dashboard.MaxUploadBytes(), s.logger)
	if err := s.validator.ValidateWorkbook(path); err != nil {
		return err
	}

	s.service = services.NewDashboardService(s.cfg.Dashboard, nil, nil, nil, s.logger)
	s.dataset, err = s.service.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("load workbook %q: %w", path, err)
	}
	return nil
}

// networks returns the requested network, or every network in the
// workbook when name is empty.
func (s *session) networks(name string) []string {
	if name = strings.TrimSpace(name); name != "" {
		return []string{name}
	}
	return s.dataset.Networks
}
