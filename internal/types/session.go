package types

import (
	"time"

	"github.com/google/uuid"
)

// PauseEvent is one continuous span during which the timer was held.
// EndTime stays nil until the pause completes; completion happens exactly once.
type PauseEvent struct {
	ID         string      `json:"id"`
	StartTime  time.Time   `json:"startTime"`
	EndTime    *time.Time  `json:"endTime,omitempty"`
	Reason     PauseReason `json:"reason"`
	RelatedApp string      `json:"relatedApp,omitempty"`
}

// NewPauseEvent opens a pause at the given instant.
func NewPauseEvent(start time.Time, reason PauseReason, relatedApp string) PauseEvent {
	return PauseEvent{
		ID:         uuid.NewString(),
		StartTime:  start,
		Reason:     reason,
		RelatedApp: relatedApp,
	}
}

// Complete sets the end time if it has not been set yet. Repeat calls are no-ops.
func (p *PauseEvent) Complete(at time.Time) {
	if p.EndTime != nil {
		return
	}
	if at.Before(p.StartTime) {
		at = p.StartTime
	}
	end := at
	p.EndTime = &end
}

// Completed reports whether the pause has ended.
func (p *PauseEvent) Completed() bool {
	return p.EndTime != nil
}

// Duration is zero until the pause completes.
func (p *PauseEvent) Duration() time.Duration {
	if p.EndTime == nil {
		return 0
	}
	return p.EndTime.Sub(p.StartTime)
}

// WorkSession is one continuous span from timer start to timer stop, inclusive
// of any pauses within it. The adherence ledger is its sole owner.
type WorkSession struct {
	ID              string       `json:"id"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         *time.Time   `json:"endTime,omitempty"`
	BreaksTaken     int          `json:"breaksTaken"`
	BreaksSkipped   int          `json:"breaksSkipped"`
	NudgesFollowed  int          `json:"nudgesFollowed"`
	NudgesDismissed int          `json:"nudgesDismissed"`
	Pauses          []PauseEvent `json:"pauses"`
}

// NewWorkSession opens a session at the given instant.
func NewWorkSession(start time.Time) *WorkSession {
	return &WorkSession{
		ID:        uuid.NewString(),
		StartTime: start,
	}
}

// Active reports whether the session has not ended yet.
func (s *WorkSession) Active() bool {
	return s.EndTime == nil
}

// Duration returns the total span of the session. For an active session the
// caller supplies "now" through End first; an open session reports the span
// up to the last recorded pause or zero when nothing is recorded yet.
func (s *WorkSession) Duration(asOf time.Time) time.Duration {
	end := asOf
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// PausedDuration sums the durations of all completed pauses.
func (s *WorkSession) PausedDuration() time.Duration {
	var total time.Duration
	for i := range s.Pauses {
		total += s.Pauses[i].Duration()
	}
	return total
}

// ActiveDuration is the session span minus pause time, floored at zero.
func (s *WorkSession) ActiveDuration(asOf time.Time) time.Duration {
	active := s.Duration(asOf) - s.PausedDuration()
	if active < 0 {
		return 0
	}
	return active
}

// BreakAttempts counts completed plus skipped breaks.
func (s *WorkSession) BreakAttempts() int {
	return s.BreaksTaken + s.BreaksSkipped
}

// CompletionRate is breaksTaken over attempts, defaulting to 1.0 before any
// break has been attempted.
func (s *WorkSession) CompletionRate() float64 {
	attempts := s.BreakAttempts()
	if attempts == 0 {
		return 1.0
	}
	return float64(s.BreaksTaken) / float64(attempts)
}
