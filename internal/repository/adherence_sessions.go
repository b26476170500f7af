package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/types"
)

// SaveSessions persists the full session list for a calendar day as one JSON
// payload, replacing whatever was stored before.
func (r *SQLiteRepository) SaveSessions(ctx context.Context, date time.Time, sessions []types.WorkSession) error {
	start := time.Now()

	if sessions == nil {
		sessions = []types.WorkSession{}
	}

	payload, err := json.Marshal(sessions)
	if err != nil {
		storeErr := repoerrors.NewWithContext("SaveSessions", err, repoerrors.ErrCodeInternal, map[string]string{
			"date": dateKey(date),
		})
		logging.LogStoreError(r.logger, storeErr, "SaveSessions", map[string]interface{}{
			"date": dateKey(date),
		})
		return storeErr
	}

	key := dateKey(date)

	err = repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		_, execErr := r.q.ExecContext(ctx, `
			INSERT INTO sessions (date, payload, updated_at)
			VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(date) DO UPDATE SET
				payload = excluded.payload,
				updated_at = excluded.updated_at
		`, key, string(payload))

		if execErr != nil {
			return r.wrapQueryError("SaveSessions", execErr, map[string]string{
				"date":     key,
				"sessions": fmt.Sprintf("%d", len(sessions)),
			})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SaveSessions", time.Since(start), map[string]interface{}{
			"date":     key,
			"sessions": len(sessions),
		})
	}

	return err
}

// GetSessions loads the session list stored for a calendar day. A day with
// no stored payload returns an empty list, not an error. A payload that no
// longer decodes is discarded and also reported as empty; corrupt snapshots
// are never retried.
func (r *SQLiteRepository) GetSessions(ctx context.Context, date time.Time) ([]types.WorkSession, error) {
	key := dateKey(date)

	var payload string

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		scanErr := r.q.QueryRowContext(ctx,
			"SELECT payload FROM sessions WHERE date = ?", key,
		).Scan(&payload)

		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return repoerrors.NewWithContext("GetSessions", scanErr, repoerrors.ErrCodeNotFound, map[string]string{
					"date": key,
				})
			}
			return r.wrapQueryError("GetSessions", scanErr, map[string]string{
				"date": key,
			})
		}
		return nil
	})

	if err != nil {
		if repoerrors.IsNotFound(err) {
			return []types.WorkSession{}, nil
		}
		return nil, err
	}

	var sessions []types.WorkSession
	if decodeErr := json.Unmarshal([]byte(payload), &sessions); decodeErr != nil {
		r.discardCorruptSessions(ctx, key, decodeErr)
		return []types.WorkSession{}, nil
	}

	return sessions, nil
}

// discardCorruptSessions removes a payload that failed to decode so the next
// save starts clean.
func (r *SQLiteRepository) discardCorruptSessions(ctx context.Context, key string, decodeErr error) {
	storeErr := repoerrors.HandleDecodeError("GetSessions", key, decodeErr)
	logging.LogStoreError(r.logger, storeErr, "GetSessions", map[string]interface{}{
		"date":   key,
		"action": "discard",
	})

	if _, err := r.q.ExecContext(ctx, "DELETE FROM sessions WHERE date = ?", key); err != nil {
		r.logger.Warn("Failed to discard corrupt session payload", "date", key, "error", err)
	}
}
