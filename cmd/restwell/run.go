package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"restwell/internal/app"
)

// shutdownTimeout bounds the graceful shutdown sequence.
const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the break scheduling daemon",
	Long: `Run the daemon: poll the OS for pause signals, drive the break timer,
and record adherence to the local database.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	logger.Info("Starting restwell", "version", version, "environment", cfg.Environment)

	a := app.NewApp(cfg.Environment, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Startup(ctx)
	a.ApplyPreferences(cfg.Timer)
	a.ApplyConfig(&cfg.Detection)
	a.StartMonitoring()

	if cfg.AutoStartSession {
		a.StartSession()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, gracefully stopping")
	cancel()

	a.EndSession()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	a.Shutdown(shutdownCtx)

	logger.Info("Restwell stopped")
	return nil
}
