// Package config loads the daemon configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"restwell/internal/types"
)

// Config holds the complete daemon configuration.
type Config struct {
	Environment string                    `mapstructure:"environment" json:"environment"`
	Logging     LoggingConfig             `mapstructure:"logging" json:"logging"`
	Timer       types.Preferences         `mapstructure:"timer" json:"timer"`
	Detection   types.PauseDecisionConfig `mapstructure:"detection" json:"detection"`
	// AutoStartSession opens a work session as soon as the daemon starts.
	AutoStartSession bool `mapstructure:"auto_start_session" json:"autoStartSession"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Load loads configuration from file and environment variables. A missing
// config file is fine; defaults and RESTWELL_* environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("restwell")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/restwell")
	}
	v.SetEnvPrefix("RESTWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An absent file is fine either way viper reports it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Timer.Normalize()
	config.Detection.Normalize()
	return &config, nil
}

// setDefaults mirrors the in-code defaults so a bare config file still
// yields a working daemon.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")
	v.SetDefault("auto_start_session", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	prefs := types.DefaultPreferences()
	v.SetDefault("timer.work_interval_seconds", prefs.WorkIntervalSeconds)
	v.SetDefault("timer.pre_break_seconds", prefs.PreBreakSeconds)
	v.SetDefault("timer.break_duration_seconds", prefs.BreakDurationSeconds)
	v.SetDefault("timer.idle_pause_minutes", prefs.IdlePauseMinutes)
	v.SetDefault("timer.idle_reset_minutes", prefs.IdleResetMinutes)
	v.SetDefault("timer.allow_skip_break", prefs.AllowSkipBreak)
	v.SetDefault("timer.allow_postpone_break", prefs.AllowPostponeBreak)
	v.SetDefault("timer.meeting_detection_enabled", prefs.MeetingDetectionEnabled)
	v.SetDefault("timer.pause_for_fullscreen_apps", prefs.PauseForFullscreenApps)
	v.SetDefault("timer.daily_break_goal", prefs.DailyBreakGoal)

	detection := types.DefaultPauseDecisionConfig()
	v.SetDefault("detection.pause_threshold", detection.PauseThreshold)
	v.SetDefault("detection.polling_interval", detection.PollingInterval)
	v.SetDefault("detection.fullscreen_detection_enabled", detection.FullscreenDetectionEnabled)
	v.SetDefault("detection.screen_recording_detection_enabled", detection.ScreenRecordingDetectionEnabled)
	v.SetDefault("detection.focus_mode_detection_enabled", detection.FocusModeDetectionEnabled)
	v.SetDefault("detection.meeting_app_detection_enabled", detection.MeetingAppDetectionEnabled)
	v.SetDefault("detection.disabled_signals", []string{})
	v.SetDefault("detection.whitelisted_apps", []string{})
}
