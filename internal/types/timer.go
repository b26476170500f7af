package types

// TimerState is the single authoritative state of the break timer.
// Exactly one state is active at a time.
type TimerState string

const (
	TimerIdle             TimerState = "idle"
	TimerRunning          TimerState = "running"
	TimerPreBreakWarning  TimerState = "preBreakWarning"
	TimerOnBreak          TimerState = "onBreak"
	TimerExternallyPaused TimerState = "externallyPaused"
)

// Preferences holds the user-facing timer settings the core consumes.
// Storage and editing of these values belong to the preferences layer.
type Preferences struct {
	WorkIntervalSeconds     int  `json:"workIntervalSeconds" mapstructure:"work_interval_seconds"`
	PreBreakSeconds         int  `json:"preBreakSeconds" mapstructure:"pre_break_seconds"`
	BreakDurationSeconds    int  `json:"breakDurationSeconds" mapstructure:"break_duration_seconds"`
	IdlePauseMinutes        int  `json:"idlePauseMinutes" mapstructure:"idle_pause_minutes"`
	IdleResetMinutes        int  `json:"idleResetMinutes" mapstructure:"idle_reset_minutes"`
	AllowSkipBreak          bool `json:"allowSkipBreak" mapstructure:"allow_skip_break"`
	AllowPostponeBreak      bool `json:"allowPostponeBreak" mapstructure:"allow_postpone_break"`
	MeetingDetectionEnabled bool `json:"meetingDetectionEnabled" mapstructure:"meeting_detection_enabled"`
	PauseForFullscreenApps  bool `json:"pauseForFullscreenApps" mapstructure:"pause_for_fullscreen_apps"`
	DailyBreakGoal          int  `json:"dailyBreakGoal" mapstructure:"daily_break_goal"`
}

// DefaultPreferences returns the stock 20-minute work / 20-second break cycle.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkIntervalSeconds:     1200,
		PreBreakSeconds:         10,
		BreakDurationSeconds:    20,
		IdlePauseMinutes:        5,
		IdleResetMinutes:        15,
		AllowSkipBreak:          true,
		AllowPostponeBreak:      true,
		MeetingDetectionEnabled: true,
		PauseForFullscreenApps:  true,
		DailyBreakGoal:          8,
	}
}

// Normalize clamps out-of-range preference values in one pass.
func (p *Preferences) Normalize() {
	if p.WorkIntervalSeconds < 60 {
		p.WorkIntervalSeconds = 60
	}
	if p.PreBreakSeconds < 0 {
		p.PreBreakSeconds = 0
	}
	if p.PreBreakSeconds >= p.WorkIntervalSeconds {
		p.PreBreakSeconds = 0
	}
	if p.BreakDurationSeconds < 5 {
		p.BreakDurationSeconds = 5
	}
	if p.IdlePauseMinutes < 1 {
		p.IdlePauseMinutes = 1
	}
	if p.IdleResetMinutes < p.IdlePauseMinutes {
		p.IdleResetMinutes = p.IdlePauseMinutes
	}
	if p.DailyBreakGoal < 1 {
		p.DailyBreakGoal = 1
	}
}
