package ledger

import (
	"context"
	"math"
	"time"

	"restwell/internal/types"
)

// scoreGrace is the Laplace-style smoothing constant in the daily score, so
// a day with few attempts is not scored as harshly as a long one.
const scoreGrace = 2

// streakLookbackDays bounds how far back the streak walk reaches.
const streakLookbackDays = 365

// computeScore maps break adherence to a 0-100 score.
func computeScore(completed, attempts int) int {
	score := int(math.Round(100 * float64(completed+scoreGrace) / float64(attempts+scoreGrace)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// finalizeDayLocked returns the day rollup with the derived fields filled
// in: screen minutes from the session list, elapsed time of a still-open
// pause, score, and goal state.
func (l *Ledger) finalizeDayLocked(now time.Time) types.DayStats {
	day := l.day

	var screen float64
	for i := range l.sessions {
		screen += l.sessions[i].ActiveDuration(now).Minutes()
	}
	day.ScreenMinutes = screen

	// An open pause has not accrued yet; count its elapsed span so reads
	// during a long meeting are not misleading.
	if session := l.activeSessionLocked(); session != nil {
		for i := range session.Pauses {
			p := &session.Pauses[i]
			if p.Completed() {
				continue
			}
			elapsed := now.Sub(p.StartTime).Minutes()
			if elapsed < 0 {
				elapsed = 0
			}
			switch p.Reason {
			case types.ReasonMeeting:
				day.MeetingMinutes += elapsed
			case types.ReasonIdle:
				day.IdleMinutes += elapsed
			}
		}
	}

	day.Score = computeScore(day.BreaksCompleted, day.BreakAttempts())
	day.GoalMet = day.BreaksCompleted >= l.prefs.DailyBreakGoal
	return day
}

// TodayStats returns a copy of today's rollup with derived fields computed
// as of now.
func (l *Ledger) TodayStats() types.DayStats {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finalizeDayLocked(now)
}

// Sessions returns a deep copy of today's session list.
func (l *Ledger) Sessions() []types.WorkSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	sessions, _, _ := l.snapshotLocked()
	return sessions
}

// NudgeTotals sums the nudge counters across today's sessions.
func (l *Ledger) NudgeTotals() (followed, dismissed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.sessions {
		followed += l.sessions[i].NudgesFollowed
		dismissed += l.sessions[i].NudgesDismissed
	}
	return followed, dismissed
}

// LongestStretchMinutes returns the longest span of unpaused work across
// today's sessions, in whole minutes.
func (l *Ledger) LongestStretchMinutes() int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	var longest time.Duration
	for i := range l.sessions {
		s := &l.sessions[i]
		end := now
		if s.EndTime != nil {
			end = *s.EndTime
		}

		cursor := s.StartTime
		for j := range s.Pauses {
			p := &s.Pauses[j]
			if stretch := p.StartTime.Sub(cursor); stretch > longest {
				longest = stretch
			}
			if p.EndTime != nil {
				cursor = *p.EndTime
			} else {
				cursor = end
			}
		}
		if stretch := end.Sub(cursor); stretch > longest {
			longest = stretch
		}
	}
	return int(longest.Minutes())
}

// Streak counts consecutive days ending today on which the break goal was
// met. A day without any recorded attempt neither extends nor breaks the
// run, except that today failing an attempted goal resets it to zero.
func (l *Ledger) Streak() int {
	now := l.clock.Now()
	l.mu.Lock()
	today := l.finalizeDayLocked(now)
	date := l.currentDate
	l.mu.Unlock()

	streak := 0
	if today.BreakAttempts() > 0 {
		if !today.GoalMet {
			return 0
		}
		streak = 1
	}

	if l.repo == nil {
		return streak
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	from := date.AddDate(0, 0, -streakLookbackDays)
	to := date.AddDate(0, 0, -1)
	history, err := l.repo.GetDayStatsRange(ctx, from, to)
	if err != nil {
		l.logger.Warn("Failed to load streak history", "error", err)
		return streak
	}

	byDate := make(map[string]types.DayStats, len(history))
	for _, d := range history {
		byDate[d.Date.Format("2006-01-02")] = d
	}

	for offset := 1; offset <= streakLookbackDays; offset++ {
		day, ok := byDate[date.AddDate(0, 0, -offset).Format("2006-01-02")]
		if !ok || day.BreakAttempts() == 0 {
			break
		}
		if !day.GoalMet {
			break
		}
		streak++
	}
	return streak
}

// HistoryWindow returns one entry per calendar day for the last n days
// ending today, oldest first. Days without stored data come back zeroed so
// callers can do per-day math without gap handling.
func (l *Ledger) HistoryWindow(days int) []types.DayStats {
	now := l.clock.Now()
	l.mu.Lock()
	today := l.finalizeDayLocked(now)
	date := l.currentDate
	l.mu.Unlock()

	from := date.AddDate(0, 0, -(days - 1))
	byDate := make(map[string]types.DayStats)
	for _, d := range l.historyRange(from, date.AddDate(0, 0, -1)) {
		byDate[d.Date.Format("2006-01-02")] = d
	}

	out := make([]types.DayStats, days)
	for i := range out {
		day := from.AddDate(0, 0, i)
		if day.Equal(date) {
			out[i] = today
		} else if stored, ok := byDate[day.Format("2006-01-02")]; ok {
			out[i] = stored
		} else {
			out[i] = types.DayStats{Date: day}
		}
	}
	return out
}

// Aggregated rolls today plus any stored history up into the requested
// period. Read failures degrade to whatever is in memory.
func (l *Ledger) Aggregated(period types.StatsPeriod) types.AggregatedStats {
	now := l.clock.Now()
	l.mu.Lock()
	today := l.finalizeDayLocked(now)
	date := l.currentDate
	l.mu.Unlock()

	days := 1
	switch period {
	case types.PeriodWeek:
		days = 7
	case types.PeriodMonth:
		days = 30
	default:
		period = types.PeriodToday
	}

	from := date.AddDate(0, 0, -(days - 1))
	agg := types.AggregatedStats{
		Period: period,
		From:   from,
		To:     date,
		Streak: l.Streak(),
	}

	current := l.historyRange(from, date.AddDate(0, 0, -1))
	current = append(current, today)
	for _, d := range current {
		agg.BreaksCompleted += d.BreaksCompleted
		agg.BreaksSkipped += d.BreaksSkipped
		agg.BreakMinutes += d.BreakMinutes
		agg.ScreenMinutes += d.ScreenMinutes
		agg.MeetingMinutes += d.MeetingMinutes
		agg.IdleMinutes += d.IdleMinutes
		for h, n := range d.HourlyBreaks {
			agg.HourlyBreaks[h] += n
		}
	}
	agg.DailyScore = computeScore(agg.BreaksCompleted, agg.BreakAttempts())

	prior := l.historyRange(from.AddDate(0, 0, -days), from.AddDate(0, 0, -1))
	agg.Trend = trendBetween(prior, current)
	return agg
}

// historyRange loads stored day rollups, tolerating a missing store.
func (l *Ledger) historyRange(from, to time.Time) []types.DayStats {
	if l.repo == nil || to.Before(from) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	history, err := l.repo.GetDayStatsRange(ctx, from, to)
	if err != nil {
		l.logger.Warn("Failed to load day stats range", "error", err)
		return nil
	}
	return history
}

// trendBetween compares completion rates of two windows. A shift of at
// least ten percentage points moves the trend off stable; a prior window
// without attempts stays stable.
func trendBetween(prior, current []types.DayStats) types.TrendDirection {
	rate := func(days []types.DayStats) (float64, bool) {
		completed, attempts := 0, 0
		for i := range days {
			completed += days[i].BreaksCompleted
			attempts += days[i].BreakAttempts()
		}
		if attempts == 0 {
			return 0, false
		}
		return float64(completed) / float64(attempts), true
	}

	before, ok := rate(prior)
	if !ok {
		return types.TrendStable
	}
	after, ok := rate(current)
	if !ok {
		return types.TrendStable
	}

	switch delta := after - before; {
	case delta >= 0.10:
		return types.TrendImproving
	case delta <= -0.10:
		return types.TrendDeclining
	default:
		return types.TrendStable
	}
}
