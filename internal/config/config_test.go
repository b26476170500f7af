package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "restwell.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1200, cfg.Timer.WorkIntervalSeconds)
	assert.Equal(t, 60, cfg.Detection.PauseThreshold)
	assert.True(t, cfg.AutoStartSession)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restwell.yaml")
	body := `
environment: development
logging:
  level: debug
timer:
  work_interval_seconds: 1500
  daily_break_goal: 4
detection:
  pause_threshold: 80
  whitelisted_apps:
    - spotify
auto_start_session: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1500, cfg.Timer.WorkIntervalSeconds)
	assert.Equal(t, 4, cfg.Timer.DailyBreakGoal)
	assert.Equal(t, 80, cfg.Detection.PauseThreshold)
	assert.Equal(t, []string{"spotify"}, cfg.Detection.WhitelistedApps)
	assert.False(t, cfg.AutoStartSession)
}

func TestLoad_NormalizesOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restwell.yaml")
	body := `
timer:
  work_interval_seconds: 10
detection:
  pause_threshold: -5
  polling_interval: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Timer.WorkIntervalSeconds)
	assert.Equal(t, 60, cfg.Detection.PauseThreshold)
	assert.Equal(t, 0.5, cfg.Detection.PollingInterval)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
