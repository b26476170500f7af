package ledger

import (
	"context"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/types"
)

// minRolloverDelay keeps the timer from spinning when the clock sits right
// on a midnight boundary.
const minRolloverDelay = time.Minute

// startupRolloverCheck reconciles the stored last-reset marker with today.
// The midnight timer cannot fire while the process is not running, so this
// comparison is what actually guarantees the day boundary after a restart.
func (l *Ledger) startupRolloverCheck(now time.Time) {
	if l.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	lastReset, err := l.repo.GetLastReset(ctx)
	switch {
	case repoerrors.IsNotFound(err):
		if err := l.repo.SetLastReset(ctx, now); err != nil {
			l.logger.Warn("Failed to store initial reset marker", "error", err)
		}
		return
	case err != nil:
		l.logger.Warn("Failed to read reset marker", "error", err)
		return
	}

	staleDate := normalizeDate(lastReset)
	if staleDate.Equal(normalizeDate(now)) {
		return
	}

	l.logger.Info("Day rollover on startup",
		"lastReset", staleDate.Format("2006-01-02"),
		"today", normalizeDate(now).Format("2006-01-02"))
	l.finalizeStaleDay(ctx, staleDate)
	l.pruneOldData(ctx, now, l.retentionDays)

	if err := l.repo.SetLastReset(ctx, now); err != nil {
		l.logger.Warn("Failed to store reset marker", "error", err)
	}
}

// pruneOldData ages out rows past the retention window.
func (l *Ledger) pruneOldData(ctx context.Context, now time.Time, days int) {
	if l.repo == nil || days <= 0 {
		return
	}
	cutoff := normalizeDate(now).AddDate(0, 0, -days)
	if err := l.repo.DeleteOldData(ctx, cutoff); err != nil {
		l.logger.Warn("Failed to prune old history", "error", err)
	}
}

// finalizeStaleDay closes any session left open on a previous day and
// rewrites that day's rollup from the closed sessions. Sessions are capped
// at their own midnight so a crash overnight does not inflate screen time.
func (l *Ledger) finalizeStaleDay(ctx context.Context, date time.Time) {
	sessions, err := l.repo.GetSessions(ctx, date)
	if err != nil || len(sessions) == 0 {
		if err != nil {
			l.logger.Warn("Failed to load stale sessions", "error", err)
		}
		return
	}

	dayEnd := date.AddDate(0, 0, 1)
	changed := false
	for i := range sessions {
		s := &sessions[i]
		for j := range s.Pauses {
			if !s.Pauses[j].Completed() {
				s.Pauses[j].Complete(dayEnd)
				changed = true
			}
		}
		if s.Active() {
			end := dayEnd
			s.EndTime = &end
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := l.repo.SaveSessions(ctx, date, sessions); err != nil {
		l.logger.Warn("Failed to close stale sessions", "error", err)
		return
	}

	stats, err := l.repo.GetDayStats(ctx, date)
	if err != nil {
		if !repoerrors.IsNotFound(err) {
			l.logger.Warn("Failed to load stale day stats", "error", err)
		}
		return
	}
	var screen float64
	for i := range sessions {
		screen += sessions[i].ActiveDuration(dayEnd).Minutes()
	}
	stats.ScreenMinutes = screen
	if err := l.repo.SaveDayStats(ctx, stats); err != nil {
		l.logger.Warn("Failed to finalize stale day stats", "error", err)
	}
}

// scheduleRollover arms a one-shot timer for the next local midnight. The
// timer reschedules itself after each firing.
func (l *Ledger) scheduleRollover() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}

	now := l.clock.Now()
	next := normalizeDate(now).AddDate(0, 0, 1)
	delay := next.Sub(now)
	if delay < minRolloverDelay {
		delay = minRolloverDelay
	}
	l.rolloverTimer = time.AfterFunc(delay, l.onRolloverTimer)
}

func (l *Ledger) onRolloverTimer() {
	now := l.clock.Now()

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	if normalizeDate(now).After(l.currentDate) {
		l.rolloverLocked(now)
	}
	l.mu.Unlock()

	l.scheduleRollover()
}

// rolloverLocked archives the finished day and resets in-memory state for
// the new one. An active session is closed at the boundary rather than
// carried across it.
func (l *Ledger) rolloverLocked(now time.Time) {
	if session := l.activeSessionLocked(); session != nil {
		l.completeOpenPauseLocked(session, now)
		end := now
		session.EndTime = &end
	}

	sessions, day, date := l.snapshotLocked()
	retention := l.retentionDays
	go func() {
		l.persist(sessions, day, date)
		l.storeLastReset(now)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		l.pruneOldData(ctx, now, retention)
	}()

	l.currentDate = normalizeDate(now)
	l.sessions = nil
	l.day = types.DayStats{Date: l.currentDate}
	l.logger.Info("Day rollover",
		"archived", date.Format("2006-01-02"),
		"current", l.currentDate.Format("2006-01-02"))
}

func (l *Ledger) storeLastReset(now time.Time) {
	if l.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.repo.SetLastReset(ctx, now); err != nil {
		l.logger.Warn("Failed to store reset marker", "error", err)
	}
}
