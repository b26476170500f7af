package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"restwell/internal/app"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export adherence history",
	Long:  `Export persisted sessions and daily statistics as JSON, or a per-day summary as CSV.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	a := app.NewApp(cfg.Environment, logger)
	defer a.Shutdown(context.Background())

	ctx := context.Background()
	var data []byte
	switch exportFormat {
	case "json":
		data, err = a.ExportJSON(ctx)
	case "csv":
		data, err = a.ExportCSV(ctx)
	default:
		return fmt.Errorf("unknown export format %q (want json or csv)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	logger.Info("Export written", "path", exportOutput, "bytes", len(data))
	return nil
}
