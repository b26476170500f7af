package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restwell/internal/database"
	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/repository"
	"restwell/internal/types"
)

// testPrefs uses a one-minute break so accrual math stays in round numbers.
func testPrefs() types.Preferences {
	prefs := types.DefaultPreferences()
	prefs.BreakDurationSeconds = 60
	prefs.DailyBreakGoal = 2
	return prefs
}

func testStart() time.Time {
	return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
}

func setupTestRepo(t *testing.T) *repository.SQLiteRepository {
	t.Helper()

	logger := logging.NewDefaultLogger()
	dbService := database.NewSQLiteService(logger)

	ctx := context.Background()
	require.NoError(t, dbService.Connect(ctx, database.TestConfig()))
	t.Cleanup(func() { dbService.Close() })
	require.NoError(t, dbService.Migrate(ctx))

	return repository.NewSQLiteRepository(dbService, logger)
}

func setupLedger(t *testing.T, clock *TestClock) (*Ledger, *repository.SQLiteRepository) {
	t.Helper()

	repo := setupTestRepo(t)
	l := New(repo, testPrefs(), clock, logging.NewDefaultLogger())
	t.Cleanup(l.Stop)
	return l, repo
}

func TestStartSession_SecondStartIgnored(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	clock.Advance(time.Minute)
	l.StartSession()

	assert.Len(t, l.Sessions(), 1)
}

func TestEndSession_WithoutActiveIsNoOp(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.EndSession()
	assert.Empty(t, l.Sessions())
}

func TestEndSession_ClosesOpenPause(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	l.StartPause(types.ReasonMeeting, "zoom")
	clock.Advance(10 * time.Minute)
	l.EndSession()

	sessions := l.Sessions()
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Pauses, 1)
	assert.True(t, sessions[0].Pauses[0].Completed())
	assert.InDelta(t, 10.0, l.TodayStats().MeetingMinutes, 0.01)
}

func TestRecordBreak_Accrual(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.RecordBreak(true)
	clock.Advance(25 * time.Minute)
	l.RecordBreak(true)
	clock.Advance(25 * time.Minute)
	l.RecordBreak(false)

	stats := l.TodayStats()
	assert.Equal(t, 2, stats.BreaksCompleted)
	assert.Equal(t, 1, stats.BreaksSkipped)
	assert.Equal(t, 3, stats.BreakAttempts())
	assert.InDelta(t, 2.0, stats.BreakMinutes, 0.01)
	assert.Equal(t, 2, stats.HourlyBreaks[9])
}

func TestRecordBreak_WithoutSessionIgnored(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.RecordBreak(true)
	assert.Zero(t, l.TodayStats().BreaksCompleted)
}

func TestEndPause_SecondCallDoesNotChangeDuration(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.StartPause(types.ReasonMeeting, "teams")
	clock.Advance(15 * time.Minute)
	l.EndPause()
	clock.Advance(30 * time.Minute)
	l.EndPause()

	assert.InDelta(t, 15.0, l.TodayStats().MeetingMinutes, 0.01)
}

func TestStartPause_CompletesPriorOpenPause(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.StartPause(types.ReasonMeeting, "zoom")
	clock.Advance(5 * time.Minute)
	l.StartPause(types.ReasonIdle, "")
	clock.Advance(3 * time.Minute)
	l.EndPause()

	stats := l.TodayStats()
	assert.InDelta(t, 5.0, stats.MeetingMinutes, 0.01)
	assert.InDelta(t, 3.0, stats.IdleMinutes, 0.01)

	sessions := l.Sessions()
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Pauses, 2)
}

func TestTodayStats_OpenPauseCounted(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.StartPause(types.ReasonMeeting, "webex")
	clock.Advance(7 * time.Minute)

	// Not ended yet; reads still reflect the time already spent.
	assert.InDelta(t, 7.0, l.TodayStats().MeetingMinutes, 0.01)
}

func TestTodayStats_ScreenMinutesExcludePauses(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	clock.Advance(20 * time.Minute)
	l.StartPause(types.ReasonIdle, "")
	clock.Advance(10 * time.Minute)
	l.EndPause()
	clock.Advance(30 * time.Minute)
	l.EndSession()

	assert.InDelta(t, 50.0, l.TodayStats().ScreenMinutes, 0.01)
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		attempts  int
		want      int
	}{
		{"no attempts", 0, 0, 100},
		{"all completed", 8, 8, 100},
		{"none completed", 0, 8, 20},
		{"half completed", 4, 8, 60},
		{"single skip", 0, 1, 67},
		{"single completion", 1, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeScore(tt.completed, tt.attempts)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestComputeScore_MonotonicInCompleted(t *testing.T) {
	for completed := 1; completed <= 10; completed++ {
		assert.GreaterOrEqual(t,
			computeScore(completed, 10), computeScore(completed-1, 10))
	}
}

func TestTodayStats_GoalMet(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.RecordBreak(true)
	assert.False(t, l.TodayStats().GoalMet)

	l.RecordBreak(true)
	assert.True(t, l.TodayStats().GoalMet)
}

func TestNudgeTotals(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)
	l.StartSession()

	l.RecordNudge(true)
	l.RecordNudge(true)
	l.RecordNudge(false)

	followed, dismissed := l.NudgeTotals()
	assert.Equal(t, 2, followed)
	assert.Equal(t, 1, dismissed)
}

func TestLongestStretch(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	clock.Advance(40 * time.Minute)
	l.StartPause(types.ReasonIdle, "")
	clock.Advance(5 * time.Minute)
	l.EndPause()
	clock.Advance(55 * time.Minute)

	assert.Equal(t, 55, l.LongestStretchMinutes())
}

func seedDayStats(t *testing.T, repo *repository.SQLiteRepository, date time.Time, completed, skipped int, goalMet bool) {
	t.Helper()
	require.NoError(t, repo.SaveDayStats(context.Background(), &types.DayStats{
		Date:            date,
		BreaksCompleted: completed,
		BreaksSkipped:   skipped,
		GoalMet:         goalMet,
	}))
}

func TestStreak_CountsConsecutiveGoalDays(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	today := l.TodayStats().Date
	seedDayStats(t, repo, today.AddDate(0, 0, -1), 8, 0, true)
	seedDayStats(t, repo, today.AddDate(0, 0, -2), 8, 1, true)
	seedDayStats(t, repo, today.AddDate(0, 0, -3), 9, 0, true)
	seedDayStats(t, repo, today.AddDate(0, 0, -4), 2, 6, false)

	// No attempt today yet; the run from prior days stands.
	assert.Equal(t, 3, l.Streak())
}

func TestStreak_ResetsWhenTodayMissesGoal(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	today := l.TodayStats().Date
	seedDayStats(t, repo, today.AddDate(0, 0, -1), 8, 0, true)
	seedDayStats(t, repo, today.AddDate(0, 0, -2), 8, 0, true)
	seedDayStats(t, repo, today.AddDate(0, 0, -3), 8, 0, true)

	l.StartSession()
	l.RecordBreak(false)

	// Goal is 2 and only a skip is on record, so the streak is gone.
	assert.Equal(t, 0, l.Streak())
}

func TestStreak_TodayExtendsRun(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	today := l.TodayStats().Date
	seedDayStats(t, repo, today.AddDate(0, 0, -1), 8, 0, true)

	l.StartSession()
	l.RecordBreak(true)
	l.RecordBreak(true)

	assert.Equal(t, 2, l.Streak())
}

func TestAggregated_WeekSumsHistory(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	today := l.TodayStats().Date
	for offset := 1; offset <= 3; offset++ {
		seedDayStats(t, repo, today.AddDate(0, 0, -offset), 4, 1, true)
	}

	l.StartSession()
	l.RecordBreak(true)

	agg := l.Aggregated(types.PeriodWeek)
	assert.Equal(t, types.PeriodWeek, agg.Period)
	assert.Equal(t, 13, agg.BreaksCompleted)
	assert.Equal(t, 3, agg.BreaksSkipped)
	assert.Equal(t, today, agg.To)
	assert.Equal(t, today.AddDate(0, 0, -6), agg.From)
}

func TestAggregated_TrendImproving(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	today := l.TodayStats().Date
	// Prior week: half the breaks skipped. Current week: none skipped.
	for offset := 7; offset <= 13; offset++ {
		seedDayStats(t, repo, today.AddDate(0, 0, -offset), 4, 4, false)
	}
	for offset := 1; offset <= 6; offset++ {
		seedDayStats(t, repo, today.AddDate(0, 0, -offset), 8, 0, true)
	}

	assert.Equal(t, types.TrendImproving, l.Aggregated(types.PeriodWeek).Trend)
}

func TestAggregated_TrendStableWithoutHistory(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	l.RecordBreak(true)

	assert.Equal(t, types.TrendStable, l.Aggregated(types.PeriodWeek).Trend)
}

func TestRollover_ArchivesAndResets(t *testing.T) {
	clock := &TestClock{CurrentTime: time.Date(2025, 3, 10, 23, 30, 0, 0, time.Local)}
	l, repo := setupLedger(t, clock)

	l.StartSession()
	l.RecordBreak(true)
	day1 := l.TodayStats().Date

	clock.Advance(31 * time.Minute)
	l.onRolloverTimer()

	stats := l.TodayStats()
	assert.Equal(t, day1.AddDate(0, 0, 1), stats.Date)
	assert.Zero(t, stats.BreaksCompleted)
	assert.Empty(t, l.Sessions())

	require.Eventually(t, func() bool {
		archived, err := repo.GetDayStats(context.Background(), day1)
		return err == nil && archived.BreaksCompleted == 1
	}, 2*time.Second, 10*time.Millisecond)

	sessions, err := repo.GetSessions(context.Background(), day1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Active())
}

func TestRollover_PrunesHistoryPastRetention(t *testing.T) {
	clock := &TestClock{CurrentTime: time.Date(2025, 3, 10, 23, 30, 0, 0, time.Local)}
	l, repo := setupLedger(t, clock)
	l.SetRetentionDays(30)

	today := l.TodayStats().Date
	oldDay := today.AddDate(0, 0, -40)
	keptDay := today.AddDate(0, 0, -10)
	seedDayStats(t, repo, oldDay, 3, 0, true)
	seedDayStats(t, repo, keptDay, 3, 0, true)

	clock.Advance(31 * time.Minute)
	l.onRolloverTimer()

	require.Eventually(t, func() bool {
		_, err := repo.GetDayStats(context.Background(), oldDay)
		return repoerrors.IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond)

	kept, err := repo.GetDayStats(context.Background(), keptDay)
	require.NoError(t, err)
	assert.Equal(t, 3, kept.BreaksCompleted)
}

func TestRollover_TimerBeforeMidnightIsNoOp(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, _ := setupLedger(t, clock)

	l.StartSession()
	l.RecordBreak(true)
	before := l.TodayStats()

	l.onRolloverTimer()

	after := l.TodayStats()
	assert.Equal(t, before.Date, after.Date)
	assert.Equal(t, before.BreaksCompleted, after.BreaksCompleted)
}

func TestStartupRollover_ClosesStaleSessions(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	repo := setupTestRepo(t)

	first := New(repo, testPrefs(), clock, logging.NewDefaultLogger())
	first.StartSession()
	first.RecordBreak(true)
	day1 := first.TodayStats().Date
	first.Stop()

	// Simulate a restart two days later with the session never ended.
	clock.Advance(48 * time.Hour)
	second := New(repo, testPrefs(), clock, logging.NewDefaultLogger())
	defer second.Stop()

	assert.Empty(t, second.Sessions())
	assert.Zero(t, second.TodayStats().BreaksCompleted)

	stale, err := repo.GetSessions(context.Background(), day1)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.False(t, stale[0].Active())

	reset, err := repo.GetLastReset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.TodayStats().Date, time.Date(
		reset.Year(), reset.Month(), reset.Day(), 0, 0, 0, 0, reset.Location()))
}

func TestLoad_ResumesSameDayState(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	repo := setupTestRepo(t)

	first := New(repo, testPrefs(), clock, logging.NewDefaultLogger())
	first.StartSession()
	first.RecordBreak(true)
	first.EndSession()
	first.Stop()

	clock.Advance(time.Hour)
	second := New(repo, testPrefs(), clock, logging.NewDefaultLogger())
	defer second.Stop()

	assert.Len(t, second.Sessions(), 1)
	assert.Equal(t, 1, second.TodayStats().BreaksCompleted)
}

func TestResetAll(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l, repo := setupLedger(t, clock)

	l.StartSession()
	l.RecordBreak(true)
	seedDayStats(t, repo, l.TodayStats().Date.AddDate(0, 0, -1), 8, 0, true)

	require.NoError(t, l.ResetAll())

	assert.Empty(t, l.Sessions())
	assert.Zero(t, l.TodayStats().BreaksCompleted)
	assert.Equal(t, 0, l.Streak())
}

func TestDegradedMode_NilRepository(t *testing.T) {
	clock := &TestClock{CurrentTime: testStart()}
	l := New(nil, testPrefs(), clock, logging.NewDefaultLogger())
	defer l.Stop()

	l.StartSession()
	l.RecordBreak(true)
	l.RecordBreak(true)
	l.StartPause(types.ReasonMeeting, "zoom")
	clock.Advance(5 * time.Minute)
	l.EndPause()
	l.EndSession()

	stats := l.TodayStats()
	assert.Equal(t, 2, stats.BreaksCompleted)
	assert.InDelta(t, 5.0, stats.MeetingMinutes, 0.01)
	assert.Equal(t, 1, l.Streak())
	require.NoError(t, l.ResetAll())
}
