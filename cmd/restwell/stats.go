package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"restwell/internal/app"
	"restwell/internal/types"
)

var statsPeriod string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show adherence statistics and insights",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "today", "Aggregation period: today, week, or month")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	var period types.StatsPeriod
	switch statsPeriod {
	case "today":
		period = types.PeriodToday
	case "week":
		period = types.PeriodWeek
	case "month":
		period = types.PeriodMonth
	default:
		return fmt.Errorf("unknown period %q (want today, week, or month)", statsPeriod)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	a := app.NewApp(cfg.Environment, logger)
	defer a.Shutdown(context.Background())

	agg := a.Aggregated(period)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Period:          %s (%s to %s)\n",
		agg.Period, agg.From.Format("2006-01-02"), agg.To.Format("2006-01-02"))
	fmt.Fprintf(out, "Breaks:          %d completed, %d skipped\n",
		agg.BreaksCompleted, agg.BreaksSkipped)
	fmt.Fprintf(out, "Break minutes:   %.1f\n", agg.BreakMinutes)
	fmt.Fprintf(out, "Screen minutes:  %.1f\n", agg.ScreenMinutes)
	fmt.Fprintf(out, "Meeting minutes: %.1f\n", agg.MeetingMinutes)
	fmt.Fprintf(out, "Score:           %d\n", agg.DailyScore)
	fmt.Fprintf(out, "Streak:          %d days\n", agg.Streak)
	fmt.Fprintf(out, "Trend:           %s\n", agg.Trend)

	insights := a.Insights()
	if len(insights) > 0 {
		fmt.Fprintln(out, "\nInsights:")
		for _, insight := range insights {
			fmt.Fprintf(out, "  - %s\n", insight.Message())
		}
	}
	return nil
}
