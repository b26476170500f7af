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

// Keys in the settings table. Values are JSON documents.
const (
	settingDecisionConfig = "decision_config"
	settingPreferences    = "preferences"
	settingLastReset      = "last_reset"
)

// SaveDecisionConfig stores the pause decision configuration.
func (r *SQLiteRepository) SaveDecisionConfig(ctx context.Context, config *types.PauseDecisionConfig) error {
	if config == nil {
		err := repoerrors.New("SaveDecisionConfig", errors.New("config is nil"), repoerrors.ErrCodeValidation)
		logging.LogStoreError(r.logger, err, "SaveDecisionConfig", nil)
		return err
	}
	return r.setJSONSetting(ctx, "SaveDecisionConfig", settingDecisionConfig, config)
}

// GetDecisionConfig loads the stored decision configuration. Missing or
// undecodable values come back as a typed not-found error so the caller can
// fall back to defaults.
func (r *SQLiteRepository) GetDecisionConfig(ctx context.Context) (*types.PauseDecisionConfig, error) {
	var config types.PauseDecisionConfig
	if err := r.getJSONSetting(ctx, "GetDecisionConfig", settingDecisionConfig, &config); err != nil {
		return nil, err
	}
	config.Normalize()
	return &config, nil
}

// SavePreferences stores the timer preferences.
func (r *SQLiteRepository) SavePreferences(ctx context.Context, prefs *types.Preferences) error {
	if prefs == nil {
		err := repoerrors.New("SavePreferences", errors.New("preferences is nil"), repoerrors.ErrCodeValidation)
		logging.LogStoreError(r.logger, err, "SavePreferences", nil)
		return err
	}
	return r.setJSONSetting(ctx, "SavePreferences", settingPreferences, prefs)
}

// GetPreferences loads the stored timer preferences.
func (r *SQLiteRepository) GetPreferences(ctx context.Context) (*types.Preferences, error) {
	var prefs types.Preferences
	if err := r.getJSONSetting(ctx, "GetPreferences", settingPreferences, &prefs); err != nil {
		return nil, err
	}
	prefs.Normalize()
	return &prefs, nil
}

// SetLastReset records when the daily rollover last ran.
func (r *SQLiteRepository) SetLastReset(ctx context.Context, at time.Time) error {
	return r.setJSONSetting(ctx, "SetLastReset", settingLastReset, at.Unix())
}

// GetLastReset returns the timestamp of the last daily rollover.
func (r *SQLiteRepository) GetLastReset(ctx context.Context) (time.Time, error) {
	var unix int64
	if err := r.getJSONSetting(ctx, "GetLastReset", settingLastReset, &unix); err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}

// setJSONSetting marshals a value and upserts it under the given key with
// retry logic.
func (r *SQLiteRepository) setJSONSetting(ctx context.Context, op, key string, value any) error {
	start := time.Now()

	encoded, err := json.Marshal(value)
	if err != nil {
		storeErr := repoerrors.NewWithContext(op, err, repoerrors.ErrCodeInternal, map[string]string{
			"key": key,
		})
		logging.LogStoreError(r.logger, storeErr, op, map[string]interface{}{"key": key})
		return storeErr
	}

	err = repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		_, execErr := r.q.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, string(encoded))

		if execErr != nil {
			return r.wrapQueryError(op, execErr, map[string]string{"key": key})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, op, time.Since(start), map[string]interface{}{"key": key})
	}

	return err
}

// getJSONSetting loads and decodes a settings value. A missing row returns a
// not-found error; a value that fails to decode is discarded and reported as
// not-found, matching the "no prior data" policy for corrupt entries.
func (r *SQLiteRepository) getJSONSetting(ctx context.Context, op, key string, dest any) error {
	var raw string

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		scanErr := r.q.QueryRowContext(ctx,
			"SELECT value FROM settings WHERE key = ?", key,
		).Scan(&raw)

		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return repoerrors.NewWithContext(op, scanErr, repoerrors.ErrCodeNotFound, map[string]string{
					"key": key,
				})
			}
			return r.wrapQueryError(op, scanErr, map[string]string{"key": key})
		}
		return nil
	})

	if err != nil {
		return err
	}

	if decodeErr := json.Unmarshal([]byte(raw), dest); decodeErr != nil {
		storeErr := repoerrors.HandleDecodeError(op, key, decodeErr)
		logging.LogStoreError(r.logger, storeErr, op, map[string]interface{}{
			"key":    key,
			"action": "discard",
		})
		if _, delErr := r.q.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); delErr != nil {
			r.logger.Warn("Failed to discard corrupt setting", "key", key, "error", delErr)
		}
		return repoerrors.NewWithContext(op, decodeErr, repoerrors.ErrCodeNotFound, map[string]string{
			"key": key,
		})
	}

	return nil
}
