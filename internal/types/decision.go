package types

import "time"

// PauseDecisionConfig controls how pause signals are sampled and combined.
// Zero values are replaced by defaults in Normalize, so a partially decoded
// config from the store is always usable.
type PauseDecisionConfig struct {
	PauseThreshold  int     `json:"pauseThreshold" mapstructure:"pause_threshold"`
	PollingInterval float64 `json:"pollingInterval" mapstructure:"polling_interval"`

	FullscreenDetectionEnabled      bool `json:"fullscreenDetectionEnabled" mapstructure:"fullscreen_detection_enabled"`
	ScreenRecordingDetectionEnabled bool `json:"screenRecordingDetectionEnabled" mapstructure:"screen_recording_detection_enabled"`
	FocusModeDetectionEnabled       bool `json:"focusModeDetectionEnabled" mapstructure:"focus_mode_detection_enabled"`
	MeetingAppDetectionEnabled      bool `json:"meetingAppDetectionEnabled" mapstructure:"meeting_app_detection_enabled"`

	// DisabledSignals lists signal names the user has switched off
	// individually, independent of the category flags above.
	DisabledSignals []string `json:"disabledSignals" mapstructure:"disabled_signals"`

	// WhitelistedApps identifies applications that never contribute a
	// signal, matched case-insensitively against process names.
	WhitelistedApps []string `json:"whitelistedApps" mapstructure:"whitelisted_apps"`
}

// DefaultPauseDecisionConfig returns the configuration used before the user
// has saved anything.
func DefaultPauseDecisionConfig() *PauseDecisionConfig {
	return &PauseDecisionConfig{
		PauseThreshold:                  60,
		PollingInterval:                 2.0,
		FullscreenDetectionEnabled:      true,
		ScreenRecordingDetectionEnabled: true,
		FocusModeDetectionEnabled:       true,
		MeetingAppDetectionEnabled:      true,
	}
}

// Normalize clamps out-of-range values back to safe defaults.
func (c *PauseDecisionConfig) Normalize() {
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = 60
	}
	if c.PollingInterval <= 0 {
		c.PollingInterval = 2.0
	}
	// Sub-second polling hammers the OS probes for no benefit.
	if c.PollingInterval < 0.5 {
		c.PollingInterval = 0.5
	}
}

// PollingDuration returns the polling interval as a time.Duration.
func (c *PauseDecisionConfig) PollingDuration() time.Duration {
	return time.Duration(c.PollingInterval * float64(time.Second))
}

// SignalDisabled reports whether the named signal is individually disabled.
func (c *PauseDecisionConfig) SignalDisabled(s PauseSignal) bool {
	name := s.String()
	for _, d := range c.DisabledSignals {
		if d == name {
			return true
		}
	}
	return false
}

// MaxReachableWeight sums the weights of every signal that is still able to
// fire under this configuration. When the result is below PauseThreshold the
// pause can never trigger.
func (c *PauseDecisionConfig) MaxReachableWeight() int {
	total := 0
	for _, s := range AllPauseSignals {
		if c.SignalDisabled(s) {
			continue
		}
		if !c.categoryEnabled(s) {
			continue
		}
		total += s.Weight()
	}
	return total
}

func (c *PauseDecisionConfig) categoryEnabled(s PauseSignal) bool {
	switch s {
	case SignalScreenRecording, SignalScreenSharing:
		return c.ScreenRecordingDetectionEnabled
	case SignalFullscreenVideo, SignalPresentationMode, SignalFullscreenApp:
		return c.FullscreenDetectionEnabled
	case SignalMeetingAppActive, SignalCalendarMeeting:
		return c.MeetingAppDetectionEnabled
	case SignalFocusModeActive:
		return c.FocusModeDetectionEnabled
	default:
		return true
	}
}
