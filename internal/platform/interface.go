package platform

// AppInfo identifies the frontmost application.
type AppInfo struct {
	Name    string `json:"name"`
	ExePath string `json:"exePath"`
	// IsSelf is true when the frontmost application is this process; the
	// detection engine never treats our own windows as a pause signal.
	IsSelf bool `json:"isSelf"`
}

// Rect describes window or display bounds in screen pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ActivityAPI is the platform seam for the pause decision engine. Every method
// reports a cheap fact about the user's current activity context. A nil result
// or non-nil error means the fact could not be obtained; callers treat that as
// "signal absent" and never propagate the failure.
type ActivityAPI interface {
	// FrontmostApp returns the application currently holding focus, or nil
	// when no window has focus.
	FrontmostApp() (*AppInfo, error)

	// WindowBounds returns the bounds of the frontmost window.
	WindowBounds() (Rect, error)

	// DisplayBounds returns the bounds of the primary display.
	DisplayBounds() (Rect, error)

	// IsScreenBeingCaptured reports the platform capture API result.
	IsScreenBeingCaptured() (bool, error)

	// IsScreenSharingActive reports whether a sharing session is in progress.
	IsScreenSharingActive() (bool, error)

	// RunningProcessNames returns lowercased executable names of running
	// processes, used for the screen-sharing daemon heuristic.
	RunningProcessNames() ([]string, error)

	// IsFocusModeActive reports the OS do-not-disturb / focus state.
	IsFocusModeActive() (bool, error)
}

// MeetingDetector is the external calendar collaborator. The core consumes the
// boolean fact only; how the calendar is queried is not its concern.
type MeetingDetector interface {
	IsInCalendarMeeting() (bool, error)
}

// NoMeetings is a MeetingDetector that never reports a meeting, used when
// calendar integration is unavailable or disabled.
type NoMeetings struct{}

// IsInCalendarMeeting always reports no meeting.
func (NoMeetings) IsInCalendarMeeting() (bool, error) { return false, nil }
