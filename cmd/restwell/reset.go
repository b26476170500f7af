package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"restwell/internal/app"
)

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all adherence data",
	Long:  `Delete every stored session, daily rollup, and setting. This cannot be undone.`,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetConfirmed, "yes", "y", false, "Confirm deletion without prompting")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirmed {
		return fmt.Errorf("refusing to delete all data without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	a := app.NewApp(cfg.Environment, logger)
	defer a.Shutdown(context.Background())

	if err := a.ResetAllStats(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	logger.Info("All adherence data deleted")
	return nil
}
