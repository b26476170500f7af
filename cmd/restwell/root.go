package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"restwell/internal/config"
	"restwell/internal/infrastructure/logging"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "restwell",
	Short: "Restwell - smart break scheduling for desktop work",
	Long: `Restwell schedules recurring "take a break" reminders, suppresses them
while you are in a meeting, recording, or presenting, and keeps an adherence
ledger of sessions, pauses, streaks, and scores used to generate insights.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the run command when no subcommand is provided
		return runDaemon(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the daemon configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the structured logger from configuration.
func setupLogger(cfg config.LoggingConfig) logging.Logger {
	var out = os.Stderr

	if cfg.Format == "text" {
		writer := zerolog.ConsoleWriter{Out: out}
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}
		logger := zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
		return logging.NewZerologAdapter(logger)
	}

	return logging.NewZerologLogger(out, cfg.Level)
}
