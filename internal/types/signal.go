package types

// PauseSignal identifies one weighted fact about the user's current activity
// context that argues for holding the break timer. The set is closed and the
// weights are fixed constants, not configuration.
type PauseSignal int

const (
	SignalScreenRecording PauseSignal = iota
	SignalScreenSharing
	SignalFullscreenVideo
	SignalPresentationMode
	SignalMeetingAppActive
	SignalFullscreenApp
	SignalFocusModeActive
	SignalCalendarMeeting
)

// AllPauseSignals lists every signal in descending weight order.
var AllPauseSignals = []PauseSignal{
	SignalScreenRecording,
	SignalScreenSharing,
	SignalFullscreenVideo,
	SignalPresentationMode,
	SignalMeetingAppActive,
	SignalFullscreenApp,
	SignalFocusModeActive,
	SignalCalendarMeeting,
}

// Weight returns the fixed contribution of the signal toward the pause threshold.
func (s PauseSignal) Weight() int {
	switch s {
	case SignalScreenRecording:
		return 100
	case SignalScreenSharing:
		return 95
	case SignalFullscreenVideo:
		return 90
	case SignalPresentationMode:
		return 85
	case SignalMeetingAppActive:
		return 80
	case SignalFullscreenApp:
		return 70
	case SignalFocusModeActive:
		return 60
	case SignalCalendarMeeting:
		return 50
	default:
		return 0
	}
}

// String returns the stable name used in configuration overrides and logs.
func (s PauseSignal) String() string {
	switch s {
	case SignalScreenRecording:
		return "screenRecording"
	case SignalScreenSharing:
		return "screenSharing"
	case SignalFullscreenVideo:
		return "fullscreenVideo"
	case SignalPresentationMode:
		return "presentationMode"
	case SignalMeetingAppActive:
		return "meetingAppActive"
	case SignalFullscreenApp:
		return "fullscreenApp"
	case SignalFocusModeActive:
		return "focusModeActive"
	case SignalCalendarMeeting:
		return "calendarMeeting"
	default:
		return "unknown"
	}
}

// Description returns a human-readable explanation of why the signal pauses.
func (s PauseSignal) Description() string {
	switch s {
	case SignalScreenRecording:
		return "Screen is being recorded"
	case SignalScreenSharing:
		return "Screen is being shared"
	case SignalFullscreenVideo:
		return "Watching fullscreen video"
	case SignalPresentationMode:
		return "Presenting slides"
	case SignalMeetingAppActive:
		return "Meeting app is in front"
	case SignalFullscreenApp:
		return "App is in fullscreen"
	case SignalFocusModeActive:
		return "Focus mode is on"
	case SignalCalendarMeeting:
		return "Calendar shows a meeting"
	default:
		return "Unknown signal"
	}
}

// Reason maps the signal to the pause reason recorded on the ledger.
func (s PauseSignal) Reason() PauseReason {
	switch s {
	case SignalScreenRecording, SignalScreenSharing:
		return ReasonScreenRecording
	case SignalMeetingAppActive, SignalCalendarMeeting:
		return ReasonMeeting
	case SignalFocusModeActive:
		return ReasonFocusMode
	case SignalFullscreenVideo, SignalPresentationMode, SignalFullscreenApp:
		return ReasonFullscreen
	default:
		return ReasonManual
	}
}

// PauseReason tags a PauseEvent with why the timer was held.
type PauseReason string

const (
	ReasonMeeting         PauseReason = "meeting"
	ReasonScreenRecording PauseReason = "screenRecording"
	ReasonFullscreen      PauseReason = "fullscreen"
	ReasonIdle            PauseReason = "idle"
	ReasonManual          PauseReason = "manual"
	ReasonQuietHours      PauseReason = "quietHours"
	ReasonSystemSleep     PauseReason = "systemSleep"
	ReasonFocusMode       PauseReason = "focusMode"
)
