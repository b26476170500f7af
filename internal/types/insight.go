package types

import "fmt"

// InsightKind tags a WellnessInsight variant.
type InsightKind string

const (
	InsightStreakAchievement     InsightKind = "streakAchievement"
	InsightImprovingTrend        InsightKind = "improvingTrend"
	InsightDecliningTrend        InsightKind = "decliningTrend"
	InsightPeakProductivityTime  InsightKind = "peakProductivityTime"
	InsightLongestStretchWarning InsightKind = "longestStretchWarning"
	InsightMeetingHeavyDay       InsightKind = "meetingHeavyDay"
	InsightExcellentBlink        InsightKind = "excellentBlinkCompliance"
	InsightPostureNeedsAttention InsightKind = "postureNeedsAttention"
	InsightRecommendedInterval   InsightKind = "recommendedBreakInterval"
	InsightGoalAchieved          InsightKind = "goalAchieved"
	InsightConsistentSchedule    InsightKind = "consistentSchedule"
	InsightImprovedRecovery      InsightKind = "improvedRecovery"
)

// WellnessInsight is one derived observation about recent behavior. Payload
// fields carry the data needed to render the message; unused fields stay zero.
// Insight lists are regenerated wholesale, never mutated in place.
type WellnessInsight struct {
	Kind InsightKind `json:"kind"`

	Days            int     `json:"days,omitempty"`            // streakAchievement
	DeltaPercent    float64 `json:"deltaPercent,omitempty"`    // improving/decliningTrend
	PeakHour        int     `json:"peakHour,omitempty"`        // peakProductivityTime
	StretchMinutes  float64 `json:"stretchMinutes,omitempty"`  // longestStretchWarning
	MeetingMinutes  float64 `json:"meetingMinutes,omitempty"`  // meetingHeavyDay
	ComplianceRatio float64 `json:"complianceRatio,omitempty"` // blink/posture compliance
	IntervalMinutes int     `json:"intervalMinutes,omitempty"` // recommendedBreakInterval
	RecoveryFactor  float64 `json:"recoveryFactor,omitempty"`  // improvedRecovery
	MeanBreaks      float64 `json:"meanBreaks,omitempty"`      // consistentSchedule
}

// Message renders the insight for display.
func (w WellnessInsight) Message() string {
	switch w.Kind {
	case InsightStreakAchievement:
		return fmt.Sprintf("You have met your break goal %d days in a row", w.Days)
	case InsightImprovingTrend:
		return fmt.Sprintf("Break completion is up %.0f%% versus last week", w.DeltaPercent)
	case InsightDecliningTrend:
		return fmt.Sprintf("Break completion is down %.0f%% versus last week", -w.DeltaPercent)
	case InsightPeakProductivityTime:
		return fmt.Sprintf("Most of your breaks this week happen around %02d:00", w.PeakHour)
	case InsightLongestStretchWarning:
		return fmt.Sprintf("Longest uninterrupted stretch today was %.0f minutes", w.StretchMinutes)
	case InsightMeetingHeavyDay:
		return fmt.Sprintf("%.0f minutes of meetings today; consider micro-breaks between calls", w.MeetingMinutes)
	case InsightExcellentBlink:
		return fmt.Sprintf("You followed %.0f%% of blink reminders", w.ComplianceRatio*100)
	case InsightPostureNeedsAttention:
		return fmt.Sprintf("Only %.0f%% of posture reminders followed", w.ComplianceRatio*100)
	case InsightRecommendedInterval:
		return fmt.Sprintf("A %d minute work interval may suit you better", w.IntervalMinutes)
	case InsightGoalAchieved:
		return "Daily break goal achieved"
	case InsightConsistentSchedule:
		return fmt.Sprintf("Consistent schedule: about %.1f breaks a day this week", w.MeanBreaks)
	case InsightImprovedRecovery:
		return fmt.Sprintf("Breaks are %.1fx longer than last week", w.RecoveryFactor)
	default:
		return string(w.Kind)
	}
}
