// Command report summarizes the telemetry audit CSV history for
// engineering review: a printed percentile/summary table plus an
// optional .xlsx export, the Go equivalent of ad-hoc spreadsheet
// analysis over the audit trail that plot_monitoring.py otherwise
// rendered as charts (plotting itself stays out of scope here).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/report"
)

func main() {
	var csvPath, xlsxOut string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the telemetry audit CSV history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(csvPath, xlsxOut)
		},
	}
	cmd.Flags().StringVar(&csvPath, "input", "", "telemetry audit CSV path, default from config")
	cmd.Flags().StringVar(&xlsxOut, "xlsx-out", "", "optional .xlsx export path")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(csvPath, xlsxOut string) error {
	if csvPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		csvPath = cfg.Paths.TelemetryAuditCSVPath
	}

	summaries, err := report.Summarize(csvPath)
	if err != nil {
		return fmt.Errorf("summarize audit csv: %w", err)
	}

	printSummary(summaries)

	if xlsxOut != "" {
		if err := report.WriteXLSX(xlsxOut, csvPath, summaries); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		fmt.Printf("wrote %s\n", xlsxOut)
	}
	return nil
}

func printSummary(summaries []report.ColumnSummary) {
	fmt.Printf("%-20s %8s %12s %12s %12s %12s %12s\n", "column", "count", "mean", "stddev", "min", "median", "max")
	for _, s := range summaries {
		fmt.Printf("%-20s %8d %12.4f %12.4f %12.4f %12.4f %12.4f\n",
			s.Column, s.Count, s.Mean, s.StdDev, s.Min, s.Median, s.Max)
	}
}
