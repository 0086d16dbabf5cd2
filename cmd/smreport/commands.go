package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/charting"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/dataprocessing"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

// stdoutPath selects standard output instead of a file for --out.
const stdoutPath = "-"

func addMonthFlags(cmd *cobra.Command, monthA, monthB *string) {
	cmd.Flags().StringVar(monthA, "month-a", "", "first month to compare (default from config, October)")
	cmd.Flags().StringVar(monthB, "month-b", "", "second month to compare (default from config, November)")
}

func newInsightsCommand(s *session) *cobra.Command {
	var network, monthA, monthB string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print the insight paragraph for each network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, name := range s.networks(network) {
				report, err := s.service.Insight(cmd.Context(), name, monthA, monthB)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, report.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network to report on (default: every network)")
	addMonthFlags(cmd, &monthA, &monthB)
	return cmd
}

func newCompareCommand(s *session) *cobra.Command {
	var network, monthA, monthB string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Print the month-vs-month comparison table for a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := s.service.Comparison(cmd.Context(), network, monthA, monthB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s vs %s\n\n", report.Network, report.MonthA, report.MonthB)
			if !report.Sufficient {
				fmt.Fprintf(out, "No rows for %s and %s; nothing to compare.\n", report.MonthA, report.MonthB)
				return nil
			}
			fmt.Fprint(out, dataprocessing.FormatComparison(report.Rows, report.MonthA, report.MonthB))
			return nil
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network to compare")
	_ = cmd.MarkFlagRequired("network")
	addMonthFlags(cmd, &monthA, &monthB)
	return cmd
}

func newChartCommand(s *session) *cobra.Command {
	var (
		network     string
		metricNames []string
		out         string
		width       int
		height      int
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a line chart of selected metrics as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics := s.service.DefaultChartMetrics()
			if len(metricNames) > 0 {
				parsed, err := parseMetrics(metricNames)
				if err != nil {
					return err
				}
				metrics = parsed
			}

			var buf bytes.Buffer
			opts := charting.Options{Width: width, Height: height}
			if err := s.service.RenderChart(cmd.Context(), network, metrics, opts, &buf); err != nil {
				return err
			}

			if out == "" {
				out = strings.ToLower(strings.TrimSpace(network)) + ".png"
			}
			return s.writeOutput(cmd, out, &buf, fmt.Sprintf("%s chart of %s", network, joinMetrics(metrics)))
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network to chart")
	_ = cmd.MarkFlagRequired("network")
	cmd.Flags().StringSliceVarP(&metricNames, "metrics", "m", nil, "metrics to plot (default from config, Views,Followers)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG file, - for stdout (default <network>.png)")
	cmd.Flags().IntVar(&width, "width", 0, "chart width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "chart height in pixels")
	return cmd
}

func newExportCommand(s *session) *cobra.Command {
	var network, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a network's normalized table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := s.service.ExportCSV(cmd.Context(), network, &buf); err != nil {
				return err
			}

			if out == "" {
				out = strings.ToLower(strings.TrimSpace(network)) + ".csv"
			}
			return s.writeOutput(cmd, out, &buf, fmt.Sprintf("%s table", network))
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network to export")
	_ = cmd.MarkFlagRequired("network")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file, - for stdout (default <network>.csv)")
	return cmd
}

// writeOutput writes buf to path, or to stdout for "-", and reports what
// was written on stderr.
func (s *session) writeOutput(cmd *cobra.Command, path string, buf *bytes.Buffer, what string) error {
	size := buf.Len()
	if path == stdoutPath {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := s.validator.ValidateOutputPath(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s (%s)\n", what, path, humanize.Bytes(uint64(size)))
	return nil
}

func parseMetrics(names []string) ([]domain.Metric, error) {
	metrics := make([]domain.Metric, 0, len(names))
	for _, name := range names {
		m, ok := domain.ParseMetric(name)
		if !ok {
			return nil, fmt.Errorf("unknown metric %q (choose from %s)", name, joinMetrics(domain.AllMetrics))
		}
		metrics = append(metrics, m)
	}
	return lo.Uniq(metrics), nil
}

func joinMetrics(metrics []domain.Metric) string {
	return strings.Join(lo.Map(metrics, func(m domain.Metric, _ int) string {
		return string(m)
	}), ", ")
}
