package repository

import (
	"context"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
)

// DeleteOldData removes session snapshots and day rollups older than the
// given cutoff. Settings are never aged out.
func (r *SQLiteRepository) DeleteOldData(ctx context.Context, olderThan time.Time) error {
	start := time.Now()
	cutoff := dateKey(olderThan)

	var sessionsDeleted, statsDeleted int64

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		res, execErr := r.q.ExecContext(ctx, "DELETE FROM sessions WHERE date < ?", cutoff)
		if execErr != nil {
			return r.wrapQueryError("DeleteOldData", execErr, map[string]string{
				"table":  "sessions",
				"cutoff": cutoff,
			})
		}
		sessionsDeleted, _ = res.RowsAffected()

		res, execErr = r.q.ExecContext(ctx, "DELETE FROM day_stats WHERE date < ?", cutoff)
		if execErr != nil {
			return r.wrapQueryError("DeleteOldData", execErr, map[string]string{
				"table":  "day_stats",
				"cutoff": cutoff,
			})
		}
		statsDeleted, _ = res.RowsAffected()

		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "DeleteOldData", time.Since(start), map[string]interface{}{
			"cutoff":           cutoff,
			"sessions_deleted": sessionsDeleted,
			"stats_deleted":    statsDeleted,
		})
	}

	return err
}

// DeleteAllData clears every stored session, rollup, and setting. Used by
// the reset command; there is no undo.
func (r *SQLiteRepository) DeleteAllData(ctx context.Context) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		for _, table := range []string{"sessions", "day_stats", "settings"} {
			if _, execErr := r.q.ExecContext(ctx, "DELETE FROM "+table); execErr != nil {
				return r.wrapQueryError("DeleteAllData", execErr, map[string]string{
					"table": table,
				})
			}
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "DeleteAllData", time.Since(start), nil)
	}

	return err
}

// HealthCheck verifies connectivity and that the expected tables respond.
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		if pingErr := r.db.PingContext(ctx); pingErr != nil {
			return r.wrapQueryError("HealthCheck.Ping", pingErr, nil)
		}

		var count int
		if scanErr := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count); scanErr != nil {
			return r.wrapQueryError("HealthCheck.Query", scanErr, nil)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "HealthCheck", time.Since(start), nil)
	}

	return err
}
