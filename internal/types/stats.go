package types

import "time"

// StatsPeriod selects the aggregation window for rollups.
type StatsPeriod string

const (
	PeriodToday StatsPeriod = "today"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
)

// TrendDirection compares a period against the prior comparable period.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// DayStats is the per-calendar-day rollup persisted by the ledger.
// BreaksSkipped is the canonical skip counter; it is never derived from other
// fields.
type DayStats struct {
	Date            time.Time `json:"date"`
	BreaksCompleted int       `json:"breaksCompleted"`
	BreaksSkipped   int       `json:"breaksSkipped"`
	BreakMinutes    float64   `json:"breakMinutes"`
	ScreenMinutes   float64   `json:"screenMinutes"`
	MeetingMinutes  float64   `json:"meetingMinutes"`
	IdleMinutes     float64   `json:"idleMinutes"`
	HourlyBreaks    [24]int   `json:"hourlyBreaks"`
	Score           int       `json:"score"`
	GoalMet         bool      `json:"goalMet"`
}

// BreakAttempts counts completed plus skipped breaks for the day.
func (d *DayStats) BreakAttempts() int {
	return d.BreaksCompleted + d.BreaksSkipped
}

// CompletionRate defaults to 1.0 before any break has been attempted.
func (d *DayStats) CompletionRate() float64 {
	attempts := d.BreakAttempts()
	if attempts == 0 {
		return 1.0
	}
	return float64(d.BreaksCompleted) / float64(attempts)
}

// AggregatedStats is the read-only rollup published to observers.
type AggregatedStats struct {
	Period          StatsPeriod    `json:"period"`
	From            time.Time      `json:"from"`
	To              time.Time      `json:"to"`
	BreaksCompleted int            `json:"breaksCompleted"`
	BreaksSkipped   int            `json:"breaksSkipped"`
	BreakMinutes    float64        `json:"breakMinutes"`
	ScreenMinutes   float64        `json:"screenMinutes"`
	MeetingMinutes  float64        `json:"meetingMinutes"`
	IdleMinutes     float64        `json:"idleMinutes"`
	HourlyBreaks    [24]int        `json:"hourlyBreaks"`
	DailyScore      int            `json:"dailyScore"`
	Streak          int            `json:"streak"`
	Trend           TrendDirection `json:"trend"`
}

// BreakAttempts counts completed plus skipped breaks in the period.
func (a *AggregatedStats) BreakAttempts() int {
	return a.BreaksCompleted + a.BreaksSkipped
}

// CompletionRate defaults to 1.0 before any break has been attempted.
func (a *AggregatedStats) CompletionRate() float64 {
	attempts := a.BreakAttempts()
	if attempts == 0 {
		return 1.0
	}
	return float64(a.BreaksCompleted) / float64(attempts)
}
