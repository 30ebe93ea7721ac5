// Package cli provides the xlt-report command line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m-ullrich/XLT/pkg/config"
	"github.com/m-ullrich/XLT/pkg/logging"
	"github.com/m-ullrich/XLT/pkg/report"
)

// reportFlags holds all flags of the report command.
type reportFlags struct {
	configPath string
	inputGlob  string
	outputDir  string
	format     string
	workers    int
	logLevel   string
	logFormat  string
}

var flagVals reportFlags

var rootCmd = &cobra.Command{
	Use:   "xlt-report",
	Short: "Generate a load-test report from recorded request data",
	Long: `xlt-report reads recorded timer files, classifies every request
through the configured merge rules, and writes the aggregated report.

Merge rules group requests under new names using regular expressions
with capturing groups; see the configuration reference for the rule
format.`,
	Example: `  # Generate an XML report from a results directory
  xlt-report -c mergerules.yaml -i "results/**/timers.csv" -o out

  # JSON report on stdout, single worker
  xlt-report -c mergerules.yaml -i "results/**/timers.csv" -o - --format json -w 1`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

func init() {
	f := &flagVals

	rootCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to the merge-rule configuration file [required]")
	rootCmd.Flags().StringVarP(&f.inputGlob, "input", "i", "", "Glob selecting the timer files to read [required]")
	rootCmd.Flags().StringVarP(&f.outputDir, "output", "o", ".", "Output directory, or - for stdout")
	rootCmd.Flags().StringVar(&f.format, "format", "xml", "Report format (xml, json, both)")
	rootCmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of classification workers (0 = number of CPUs)")
	rootCmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")

	_ = rootCmd.MarkFlagRequired("config")
	_ = rootCmd.MarkFlagRequired("input")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func runReport(cmd *cobra.Command, _ []string) error {
	f := flagVals

	if f.format != "xml" && f.format != "json" && f.format != "both" {
		return fmt.Errorf("unknown report format %q (want xml, json, or both)", f.format)
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
	})

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := report.NewGenerator(cfg, report.Options{
		InputGlob: f.inputGlob,
		Workers:   f.workers,
		Logger:    logger,
	})

	rep, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	return writeReport(rep, f.outputDir, f.format, logger.With("runId", rep.RunID))
}

func writeReport(rep *report.Report, outputDir, format string, logger *slog.Logger) error {
	write := func(name string, render func(io.Writer, *report.Report) error) error {
		if outputDir == "-" {
			return render(os.Stdout, rep)
		}

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		path := filepath.Join(outputDir, name)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer func() { _ = file.Close() }()

		if err := render(file, rep); err != nil {
			return err
		}
		logger.Info("report written", "path", path)
		return nil
	}

	if format == "xml" || format == "both" {
		if err := write("testreport.xml", report.WriteXML); err != nil {
			return err
		}
	}
	if format == "json" || format == "both" {
		if err := write("testreport.json", report.WriteJSON); err != nil {
			return err
		}
	}
	return nil
}
