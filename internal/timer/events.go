package timer

import (
	"time"

	"restwell/internal/types"
)

// EventType defines the type of break timer event.
type EventType string

const (
	EventStateChange  EventType = "state_change"
	EventProgress     EventType = "progress"
	EventPauseStarted EventType = "pause_started"
	EventPauseEnded   EventType = "pause_ended"
	EventBreakStarted EventType = "break_started"
	EventBreakEnded   EventType = "break_ended"
	EventIdleReset    EventType = "idle_reset"
)

// Event represents a break timer update for observers. The ledger consumes
// pause and break events; UI layers typically watch state changes and
// progress.
type Event struct {
	Type       EventType
	State      types.TimerState
	Reason     types.PauseReason
	RelatedApp string
	// Completed distinguishes a finished break from a skipped one on
	// EventBreakEnded.
	Completed bool
	Remaining time.Duration
	Progress  float64
	At        time.Time
}
