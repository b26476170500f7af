package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/types"
)

// SaveDayStats upserts the rollup row for the stats' calendar day.
func (r *SQLiteRepository) SaveDayStats(ctx context.Context, stats *types.DayStats) error {
	start := time.Now()

	if stats == nil {
		err := repoerrors.New("SaveDayStats", errors.New("stats is nil"), repoerrors.ErrCodeValidation)
		logging.LogStoreError(r.logger, err, "SaveDayStats", nil)
		return err
	}

	key := dateKey(stats.Date)

	hourly, err := json.Marshal(stats.HourlyBreaks)
	if err != nil {
		storeErr := repoerrors.NewWithContext("SaveDayStats", err, repoerrors.ErrCodeInternal, map[string]string{
			"date": key,
		})
		logging.LogStoreError(r.logger, storeErr, "SaveDayStats", map[string]interface{}{"date": key})
		return storeErr
	}

	err = repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		_, execErr := r.q.ExecContext(ctx, `
			INSERT INTO day_stats (
				date, breaks_completed, breaks_skipped, break_minutes,
				screen_minutes, meeting_minutes, idle_minutes,
				hourly_breaks, score, goal_met, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
			ON CONFLICT(date) DO UPDATE SET
				breaks_completed = excluded.breaks_completed,
				breaks_skipped = excluded.breaks_skipped,
				break_minutes = excluded.break_minutes,
				screen_minutes = excluded.screen_minutes,
				meeting_minutes = excluded.meeting_minutes,
				idle_minutes = excluded.idle_minutes,
				hourly_breaks = excluded.hourly_breaks,
				score = excluded.score,
				goal_met = excluded.goal_met,
				updated_at = excluded.updated_at
		`, key, stats.BreaksCompleted, stats.BreaksSkipped, stats.BreakMinutes,
			stats.ScreenMinutes, stats.MeetingMinutes, stats.IdleMinutes,
			string(hourly), stats.Score, boolToInt(stats.GoalMet))

		if execErr != nil {
			return r.wrapQueryError("SaveDayStats", execErr, map[string]string{
				"date": key,
			})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SaveDayStats", time.Since(start), map[string]interface{}{
			"date":  key,
			"score": stats.Score,
		})
	}

	return err
}

// GetDayStats loads the rollup for one calendar day. Missing days come back
// as a typed not-found error.
func (r *SQLiteRepository) GetDayStats(ctx context.Context, date time.Time) (*types.DayStats, error) {
	key := dateKey(date)

	var result *types.DayStats

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		row := r.q.QueryRowContext(ctx, `
			SELECT date, breaks_completed, breaks_skipped, break_minutes,
			       screen_minutes, meeting_minutes, idle_minutes,
			       hourly_breaks, score, goal_met
			FROM day_stats WHERE date = ?
		`, key)

		stats, scanErr := r.scanDayStats(row)
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return repoerrors.NewWithContext("GetDayStats", scanErr, repoerrors.ErrCodeNotFound, map[string]string{
					"date": key,
				})
			}
			return r.wrapQueryError("GetDayStats", scanErr, map[string]string{
				"date": key,
			})
		}

		result = stats
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetDayStatsRange loads rollups for [startDate, endDate] inclusive, ordered
// by date ascending. Days without a row are simply absent from the result.
func (r *SQLiteRepository) GetDayStatsRange(ctx context.Context, startDate, endDate time.Time) ([]types.DayStats, error) {
	startKey := dateKey(startDate)
	endKey := dateKey(endDate)

	var result []types.DayStats

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		rows, queryErr := r.q.QueryContext(ctx, `
			SELECT date, breaks_completed, breaks_skipped, break_minutes,
			       screen_minutes, meeting_minutes, idle_minutes,
			       hourly_breaks, score, goal_met
			FROM day_stats
			WHERE date >= ? AND date <= ?
			ORDER BY date ASC
		`, startKey, endKey)
		if queryErr != nil {
			return r.wrapQueryError("GetDayStatsRange", queryErr, map[string]string{
				"start": startKey,
				"end":   endKey,
			})
		}
		defer rows.Close()

		collected := make([]types.DayStats, 0)
		for rows.Next() {
			stats, scanErr := r.scanDayStats(rows)
			if scanErr != nil {
				return r.wrapQueryError("GetDayStatsRange", scanErr, map[string]string{
					"start": startKey,
					"end":   endKey,
				})
			}
			collected = append(collected, *stats)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return r.wrapQueryError("GetDayStatsRange", rowsErr, map[string]string{
				"start": startKey,
				"end":   endKey,
			})
		}

		result = collected
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanDayStats(row rowScanner) (*types.DayStats, error) {
	var (
		stats   types.DayStats
		key     string
		hourly  string
		goalMet int
	)

	err := row.Scan(&key, &stats.BreaksCompleted, &stats.BreaksSkipped, &stats.BreakMinutes,
		&stats.ScreenMinutes, &stats.MeetingMinutes, &stats.IdleMinutes,
		&hourly, &stats.Score, &goalMet)
	if err != nil {
		return nil, err
	}

	date, parseErr := time.ParseInLocation(dateKeyLayout, key, time.Local)
	if parseErr != nil {
		return nil, parseErr
	}
	stats.Date = date
	stats.GoalMet = goalMet != 0

	// A hourly distribution that fails to decode degrades to empty buckets
	if decodeErr := json.Unmarshal([]byte(hourly), &stats.HourlyBreaks); decodeErr != nil {
		r.logger.Debug("Discarding malformed hourly distribution", "date", key, "error", decodeErr)
		stats.HourlyBreaks = [24]int{}
	}

	return &stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
