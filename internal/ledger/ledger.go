package ledger

import (
	"context"
	"sync"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/repository"
	"restwell/internal/types"
)

// persistTimeout bounds each background write.
const persistTimeout = 10 * time.Second

// Ledger owns every WorkSession and PauseEvent. All mutation goes through
// its methods; observers only ever see copies. A nil repository degrades the
// ledger to memory-only operation, which keeps the timer usable when the
// store is unavailable.
type Ledger struct {
	mu     sync.Mutex
	repo   repository.AdherenceRepository
	logger logging.Logger
	clock  Clock
	prefs  types.Preferences

	currentDate   time.Time
	sessions      []types.WorkSession
	day           types.DayStats
	retentionDays int

	dirty         chan struct{}
	stopCh        chan struct{}
	wg            sync.WaitGroup
	rolloverTimer *time.Timer
	stopped       bool
}

// New constructs the ledger, loads today's state from the store, applies the
// startup rollover check, and arms the midnight rollover timer.
func New(repo repository.AdherenceRepository, prefs types.Preferences, clock Clock, logger logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	prefs.Normalize()

	now := clock.Now()
	l := &Ledger{
		repo:          repo,
		logger:        logger,
		clock:         clock,
		prefs:         prefs,
		currentDate:   normalizeDate(now),
		retentionDays: streakLookbackDays,
		dirty:         make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
	l.day.Date = l.currentDate

	l.startupRolloverCheck(now)
	l.loadToday()

	l.wg.Add(1)
	go l.persistLoop()
	l.scheduleRollover()
	return l
}

// SetRetentionDays controls how much stored history the rollover keeps.
// Zero or negative keeps everything.
func (l *Ledger) SetRetentionDays(days int) {
	l.mu.Lock()
	l.retentionDays = days
	l.mu.Unlock()
}

// UpdatePreferences changes the goal and break duration used in rollups.
func (l *Ledger) UpdatePreferences(prefs types.Preferences) {
	prefs.Normalize()
	l.mu.Lock()
	l.prefs = prefs
	l.mu.Unlock()
}

// Stop cancels the rollover timer and flushes state synchronously.
func (l *Ledger) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	if l.rolloverTimer != nil {
		l.rolloverTimer.Stop()
	}
	l.mu.Unlock()

	close(l.stopCh)
	l.wg.Wait()

	l.mu.Lock()
	sessions, day, date := l.snapshotLocked()
	l.mu.Unlock()
	l.persist(sessions, day, date)
}

// StartSession opens a new work session. At most one session is active at a
// time; a second start is a logged no-op.
func (l *Ledger) StartSession() {
	now := l.clock.Now()

	l.mu.Lock()
	if l.activeSessionLocked() != nil {
		l.logger.Warn("StartSession ignored; a session is already active")
		l.mu.Unlock()
		return
	}
	session := types.NewWorkSession(now)
	l.sessions = append(l.sessions, *session)
	l.logger.Info("Work session started", "sessionId", session.ID)
	l.markDirtyLocked()
	l.mu.Unlock()
}

// EndSession closes the active session, completing any open pause first.
func (l *Ledger) EndSession() {
	now := l.clock.Now()

	l.mu.Lock()
	session := l.activeSessionLocked()
	if session == nil {
		l.logger.Debug("EndSession ignored; no active session")
		l.mu.Unlock()
		return
	}
	l.completeOpenPauseLocked(session, now)
	end := now
	session.EndTime = &end
	l.logger.Info("Work session ended",
		"sessionId", session.ID,
		"duration", session.Duration(now).String())
	l.markDirtyLocked()
	l.mu.Unlock()
}

// RecordBreak updates break counters on the active session and the day
// rollup. Completed breaks accrue break minutes and an hourly bucket.
func (l *Ledger) RecordBreak(completed bool) {
	now := l.clock.Now()

	l.mu.Lock()
	session := l.activeSessionLocked()
	if session == nil {
		l.logger.Warn("RecordBreak ignored; no active session", "completed", completed)
		l.mu.Unlock()
		return
	}

	if completed {
		session.BreaksTaken++
		l.day.BreaksCompleted++
		l.day.HourlyBreaks[now.Hour()]++
		l.day.BreakMinutes += float64(l.prefs.BreakDurationSeconds) / 60.0
	} else {
		session.BreaksSkipped++
		l.day.BreaksSkipped++
	}
	l.markDirtyLocked()
	l.mu.Unlock()
}

// RecordNudge updates the nudge counters on the active session.
func (l *Ledger) RecordNudge(followed bool) {
	l.mu.Lock()
	session := l.activeSessionLocked()
	if session == nil {
		l.logger.Warn("RecordNudge ignored; no active session", "followed", followed)
		l.mu.Unlock()
		return
	}

	if followed {
		session.NudgesFollowed++
	} else {
		session.NudgesDismissed++
	}
	l.markDirtyLocked()
	l.mu.Unlock()
}

// StartPause opens a pause on the active session. An already-open pause is
// completed first, so every pause in the list has at most one gap.
func (l *Ledger) StartPause(reason types.PauseReason, relatedApp string) {
	now := l.clock.Now()

	l.mu.Lock()
	session := l.activeSessionLocked()
	if session == nil {
		l.logger.Debug("StartPause ignored; no active session", "reason", reason)
		l.mu.Unlock()
		return
	}

	l.completeOpenPauseLocked(session, now)
	session.Pauses = append(session.Pauses, types.NewPauseEvent(now, reason, relatedApp))
	l.logger.Debug("Pause started", "reason", reason, "relatedApp", relatedApp)
	l.markDirtyLocked()
	l.mu.Unlock()
}

// EndPause completes the open pause. Calling it again is a no-op; the
// event's recorded duration never changes after completion.
func (l *Ledger) EndPause() {
	now := l.clock.Now()

	l.mu.Lock()
	session := l.activeSessionLocked()
	if session == nil || !l.completeOpenPauseLocked(session, now) {
		l.logger.Debug("EndPause ignored; no open pause")
		l.mu.Unlock()
		return
	}
	l.markDirtyLocked()
	l.mu.Unlock()
}

// ResetAll wipes in-memory state and, when a store is attached, all
// persisted history. Unlike the write path this is synchronous; the caller
// asked for a destructive operation and should learn whether it worked.
func (l *Ledger) ResetAll() error {
	now := l.clock.Now()

	l.mu.Lock()
	l.sessions = nil
	l.day = types.DayStats{Date: l.currentDate}
	l.mu.Unlock()

	if l.repo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.repo.DeleteAllData(ctx); err != nil {
		return err
	}
	if err := l.repo.SetLastReset(ctx, now); err != nil {
		l.logger.Warn("Failed to store reset marker", "error", err)
	}
	l.logger.Info("All adherence data reset")
	return nil
}

// activeSessionLocked returns a pointer to the session without an end time,
// or nil.
func (l *Ledger) activeSessionLocked() *types.WorkSession {
	for i := len(l.sessions) - 1; i >= 0; i-- {
		if l.sessions[i].Active() {
			return &l.sessions[i]
		}
	}
	return nil
}

// completeOpenPauseLocked completes the session's open pause, accruing its
// minutes into the day rollup. Reports whether a pause was open.
func (l *Ledger) completeOpenPauseLocked(session *types.WorkSession, now time.Time) bool {
	for i := len(session.Pauses) - 1; i >= 0; i-- {
		p := &session.Pauses[i]
		if !p.Completed() {
			p.Complete(now)
			minutes := p.Duration().Minutes()
			switch p.Reason {
			case types.ReasonMeeting:
				l.day.MeetingMinutes += minutes
			case types.ReasonIdle:
				l.day.IdleMinutes += minutes
			}
			return true
		}
	}
	return false
}

// loadToday reads today's sessions and rollup synchronously. Anything that
// cannot be read starts fresh; load failures never block construction.
func (l *Ledger) loadToday() {
	if l.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	sessions, err := l.repo.GetSessions(ctx, l.currentDate)
	if err != nil {
		l.logger.Warn("Failed to load stored sessions; starting fresh", "error", err)
	} else {
		// Only sessions actually started today survive the load
		kept := sessions[:0]
		for _, s := range sessions {
			if normalizeDate(s.StartTime).Equal(l.currentDate) {
				kept = append(kept, s)
			}
		}
		l.sessions = kept
	}

	stats, err := l.repo.GetDayStats(ctx, l.currentDate)
	switch {
	case err == nil:
		l.day = *stats
	case repoerrors.IsNotFound(err):
		// first run of the day
	default:
		l.logger.Warn("Failed to load day stats; starting fresh", "error", err)
	}
	l.day.Date = l.currentDate
}

// snapshotLocked copies the mutable state for hand-off to a writer.
func (l *Ledger) snapshotLocked() ([]types.WorkSession, types.DayStats, time.Time) {
	sessions := make([]types.WorkSession, len(l.sessions))
	copy(sessions, l.sessions)
	for i := range sessions {
		pauses := make([]types.PauseEvent, len(sessions[i].Pauses))
		copy(pauses, sessions[i].Pauses)
		sessions[i].Pauses = pauses
	}

	day := l.finalizeDayLocked(l.clock.Now())
	return sessions, day, l.currentDate
}

// markDirtyLocked nudges the writer goroutine. The channel holds one
// pending signal, so bursts of mutations coalesce into a single write of
// the latest snapshot.
func (l *Ledger) markDirtyLocked() {
	if l.repo == nil {
		return
	}
	select {
	case l.dirty <- struct{}{}:
	default:
	}
}

// persistLoop is the single background writer. Taking the snapshot at write
// time means a later write can never be overtaken by an older snapshot.
func (l *Ledger) persistLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopCh:
			return
		case <-l.dirty:
			l.mu.Lock()
			sessions, day, date := l.snapshotLocked()
			l.mu.Unlock()
			l.persist(sessions, day, date)
		}
	}
}

func (l *Ledger) persist(sessions []types.WorkSession, day types.DayStats, date time.Time) {
	if l.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := l.repo.SaveSessions(ctx, date, sessions); err != nil {
		l.logger.Error("Failed to persist sessions", "date", date.Format("2006-01-02"), "error", err)
	}
	if err := l.repo.SaveDayStats(ctx, &day); err != nil {
		l.logger.Error("Failed to persist day stats", "date", date.Format("2006-01-02"), "error", err)
	}
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
