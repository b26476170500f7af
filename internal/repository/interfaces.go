package repository

import (
	"context"
	"time"

	"restwell/internal/types"
)

// AdherenceRepository defines the persistence operations backing the ledger.
// Implementations never surface sql.ErrNoRows directly; missing rows come
// back as typed not-found errors so callers can treat them as "no prior
// data".
type AdherenceRepository interface {
	// Session snapshots, one serialized list per calendar day
	SaveSessions(ctx context.Context, date time.Time, sessions []types.WorkSession) error
	GetSessions(ctx context.Context, date time.Time) ([]types.WorkSession, error)

	// Per-day rollups
	SaveDayStats(ctx context.Context, stats *types.DayStats) error
	GetDayStats(ctx context.Context, date time.Time) (*types.DayStats, error)
	GetDayStatsRange(ctx context.Context, startDate, endDate time.Time) ([]types.DayStats, error)

	// Settings persisted as JSON values in the key-value table
	SaveDecisionConfig(ctx context.Context, config *types.PauseDecisionConfig) error
	GetDecisionConfig(ctx context.Context) (*types.PauseDecisionConfig, error)
	SavePreferences(ctx context.Context, prefs *types.Preferences) error
	GetPreferences(ctx context.Context) (*types.Preferences, error)
	SetLastReset(ctx context.Context, at time.Time) error
	GetLastReset(ctx context.Context) (time.Time, error)

	// Maintenance
	DeleteOldData(ctx context.Context, olderThan time.Time) error
	DeleteAllData(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Transaction support
	WithTransaction(ctx context.Context, fn func(repo AdherenceRepository) error) error
}
