// Package insights derives human-readable observations from adherence
// aggregates. Generation is a pure function of the snapshot; the engine
// holds no state and every call rebuilds the full list.
package insights

import (
	"math"

	"restwell/internal/types"
)

// Rule thresholds are fixed, not user-configurable.
const (
	streakMinDays        = 3
	trendDeltaPercent    = 10.0
	longStretchMinutes   = 45
	meetingHeavyMinutes  = 120.0
	blinkMinShown        = 5
	blinkGoodRatio       = 0.8
	postureMinShown      = 3
	postureBadRatio      = 0.5
	consistencyMaxStdev  = 2.0
	consistencyMinMean   = 3.0
	recoveryFactorFloor  = 1.2
	intervalMinAttempts  = 4
	highSkipRate         = 0.4
	lowSkipRate          = 0.1
	shortStretchMinutes  = 30
	suggestShortInterval = 20
	suggestLongInterval  = 30
)

// Snapshot is the read-only view of the ledger an insight pass consumes.
// Week and PriorWeek hold exactly seven entries each, oldest first, with
// zeroed entries for days that have no data.
type Snapshot struct {
	Today                 types.DayStats
	Week                  []types.DayStats
	PriorWeek             []types.DayStats
	Streak                int
	LongestStretchMinutes int
	NudgesFollowed        int
	NudgesDismissed       int
}

// Generate applies every rule and returns all that match. Rules are
// independent; order of the result follows the rule table, and ranking is
// left to the caller.
func Generate(snap Snapshot) []types.WellnessInsight {
	var out []types.WellnessInsight

	if snap.Streak >= streakMinDays {
		out = append(out, types.WellnessInsight{
			Kind: types.InsightStreakAchievement,
			Days: snap.Streak,
		})
	}

	if insight, ok := trendInsight(snap.Week, snap.PriorWeek); ok {
		out = append(out, insight)
	}

	if hour, ok := peakHour(snap.Week); ok {
		out = append(out, types.WellnessInsight{
			Kind:     types.InsightPeakProductivityTime,
			PeakHour: hour,
		})
	}

	if snap.LongestStretchMinutes >= longStretchMinutes {
		out = append(out, types.WellnessInsight{
			Kind:           types.InsightLongestStretchWarning,
			StretchMinutes: float64(snap.LongestStretchMinutes),
		})
	}

	if snap.Today.MeetingMinutes >= meetingHeavyMinutes {
		out = append(out, types.WellnessInsight{
			Kind:           types.InsightMeetingHeavyDay,
			MeetingMinutes: snap.Today.MeetingMinutes,
		})
	}

	shown := snap.NudgesFollowed + snap.NudgesDismissed
	if shown > 0 {
		ratio := float64(snap.NudgesFollowed) / float64(shown)
		if shown >= blinkMinShown && ratio >= blinkGoodRatio {
			out = append(out, types.WellnessInsight{
				Kind:            types.InsightExcellentBlink,
				ComplianceRatio: ratio,
			})
		}
		if shown >= postureMinShown && ratio < postureBadRatio {
			out = append(out, types.WellnessInsight{
				Kind:            types.InsightPostureNeedsAttention,
				ComplianceRatio: ratio,
			})
		}
	}

	if snap.Today.GoalMet {
		out = append(out, types.WellnessInsight{Kind: types.InsightGoalAchieved})
	}

	if mean, ok := consistentSchedule(snap.Week); ok {
		out = append(out, types.WellnessInsight{
			Kind:       types.InsightConsistentSchedule,
			MeanBreaks: mean,
		})
	}

	if factor, ok := improvedRecovery(snap.Week, snap.PriorWeek); ok {
		out = append(out, types.WellnessInsight{
			Kind:           types.InsightImprovedRecovery,
			RecoveryFactor: factor,
		})
	}

	if interval, ok := suggestedInterval(snap.Today, snap.LongestStretchMinutes); ok {
		out = append(out, types.WellnessInsight{
			Kind:            types.InsightRecommendedInterval,
			IntervalMinutes: interval,
		})
	}

	return out
}

func completionRate(days []types.DayStats) (float64, bool) {
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

func trendInsight(week, priorWeek []types.DayStats) (types.WellnessInsight, bool) {
	current, ok := completionRate(week)
	if !ok {
		return types.WellnessInsight{}, false
	}
	prior, ok := completionRate(priorWeek)
	if !ok {
		return types.WellnessInsight{}, false
	}

	delta := (current - prior) * 100
	switch {
	case delta >= trendDeltaPercent:
		return types.WellnessInsight{Kind: types.InsightImprovingTrend, DeltaPercent: delta}, true
	case delta <= -trendDeltaPercent:
		return types.WellnessInsight{Kind: types.InsightDecliningTrend, DeltaPercent: delta}, true
	default:
		return types.WellnessInsight{}, false
	}
}

// peakHour picks the hour with the most completed breaks this week. Ties go
// to the earliest hour.
func peakHour(week []types.DayStats) (int, bool) {
	var buckets [24]int
	for i := range week {
		for h, n := range week[i].HourlyBreaks {
			buckets[h] += n
		}
	}

	best, count := 0, 0
	for h, n := range buckets {
		if n > count {
			best, count = h, n
		}
	}
	return best, count > 0
}

func consistentSchedule(week []types.DayStats) (float64, bool) {
	if len(week) == 0 {
		return 0, false
	}

	var sum float64
	for i := range week {
		sum += float64(week[i].BreaksCompleted)
	}
	mean := sum / float64(len(week))
	if mean < consistencyMinMean {
		return 0, false
	}

	var variance float64
	for i := range week {
		d := float64(week[i].BreaksCompleted) - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(len(week)))
	if stdev > consistencyMaxStdev {
		return 0, false
	}
	return mean, true
}

// improvedRecovery compares average break minutes per attempt week over
// week.
func improvedRecovery(week, priorWeek []types.DayStats) (float64, bool) {
	perAttempt := func(days []types.DayStats) (float64, bool) {
		minutes, attempts := 0.0, 0
		for i := range days {
			minutes += days[i].BreakMinutes
			attempts += days[i].BreakAttempts()
		}
		if attempts == 0 {
			return 0, false
		}
		return minutes / float64(attempts), true
	}

	current, ok := perAttempt(week)
	if !ok {
		return 0, false
	}
	prior, ok := perAttempt(priorWeek)
	if !ok || prior <= 0 {
		return 0, false
	}

	factor := current / prior
	if factor <= recoveryFactorFloor {
		return 0, false
	}
	return factor, true
}

func suggestedInterval(today types.DayStats, longestStretch int) (int, bool) {
	attempts := today.BreakAttempts()
	if attempts < intervalMinAttempts {
		return 0, false
	}

	skipRate := float64(today.BreaksSkipped) / float64(attempts)
	switch {
	case skipRate >= highSkipRate:
		return suggestShortInterval, true
	case skipRate <= lowSkipRate && longestStretch < shortStretchMinutes:
		return suggestLongInterval, true
	default:
		return 0, false
	}
}
