package timer

import (
	"errors"
	"sync"
	"time"

	"restwell/internal/detection"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/platform"
	"restwell/internal/types"
)

// ErrIdleUnsupported indicates idle detection is not available on this
// system. It aliases the platform sentinel so both spellings match.
var ErrIdleUnsupported = platform.ErrIdleUnsupported

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Options contains runtime knobs for the BreakTimer loop.
type Options struct {
	TickInterval      time.Duration
	IdleCheckInterval time.Duration
}

// How much time a postponed break buys before the warning fires again.
const postponeDelay = 5 * time.Minute

// Breaks may be ended early only in their final fifth.
const earlyEndFraction = 0.2

// BreakTimer is the state machine that schedules breaks. Time moves through
// Advance, which the 1 Hz loop feeds with wall-clock deltas; tests drive it
// directly with virtual time. Externally paused time never counts toward the
// work interval.
type BreakTimer struct {
	mu      sync.Mutex
	prefs   types.Preferences
	options Options
	logger  logging.Logger

	state          types.TimerState
	previousState  types.TimerState
	elapsed        time.Duration
	breakRemaining time.Duration
	pauseReason    types.PauseReason
	relatedApp     string

	idleChecker   IdleChecker
	idleSinceLast time.Duration
	lastIdleCheck time.Time
	idleDisabled  bool

	events  []chan Event
	stopCh  chan struct{}
	running bool
}

// New creates a BreakTimer in the idle state.
func New(prefs types.Preferences, options Options, logger logging.Logger) *BreakTimer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.IdleCheckInterval <= 0 {
		options.IdleCheckInterval = 5 * time.Second
	}
	prefs.Normalize()

	return &BreakTimer{
		prefs:         prefs,
		options:       options,
		logger:        logger,
		state:         types.TimerIdle,
		previousState: types.TimerIdle,
	}
}

// SetIdleChecker injects an idle checker.
func (bt *BreakTimer) SetIdleChecker(checker IdleChecker) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.idleChecker = checker
	bt.idleDisabled = false
}

// Subscribe registers a new observer channel. Slow observers drop events.
func (bt *BreakTimer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	bt.mu.Lock()
	bt.events = append(bt.events, ch)
	bt.mu.Unlock()
	return ch
}

// State returns the current timer state.
func (bt *BreakTimer) State() types.TimerState {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.state
}

// Remaining returns the time left in the current phase: until the break
// while working, until the break ends while on one, zero otherwise.
func (bt *BreakTimer) Remaining() time.Duration {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	switch bt.state {
	case types.TimerRunning, types.TimerPreBreakWarning:
		remaining := bt.workInterval() - bt.elapsed
		if remaining < 0 {
			return 0
		}
		return remaining
	case types.TimerOnBreak:
		return bt.breakRemaining
	default:
		return 0
	}
}

// UpdatePreferences swaps in new settings. A shrunken work interval takes
// effect on the next tick; elapsed time is preserved.
func (bt *BreakTimer) UpdatePreferences(prefs types.Preferences) {
	prefs.Normalize()
	bt.mu.Lock()
	bt.prefs = prefs
	bt.mu.Unlock()
}

// Preferences returns the active settings.
func (bt *BreakTimer) Preferences() types.Preferences {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.prefs
}

// Run launches the ticking loop. Calling Run on a running timer is a no-op.
func (bt *BreakTimer) Run() {
	bt.mu.Lock()
	if bt.running {
		bt.mu.Unlock()
		return
	}
	bt.running = true
	bt.stopCh = make(chan struct{})
	stop := bt.stopCh
	bt.mu.Unlock()

	go bt.loop(stop)
}

// Stop terminates the ticking loop and closes observer channels. The state
// is left as-is.
func (bt *BreakTimer) Stop() {
	bt.mu.Lock()
	if !bt.running {
		bt.mu.Unlock()
		return
	}
	bt.running = false
	close(bt.stopCh)
	events := bt.events
	bt.events = nil
	bt.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// StartWork transitions idle to running. Any other state logs and returns.
func (bt *BreakTimer) StartWork() {
	bt.mu.Lock()
	if bt.state != types.TimerIdle {
		bt.logger.Debug("StartWork ignored outside idle state", "state", bt.state)
		bt.mu.Unlock()
		return
	}
	bt.elapsed = 0
	bt.setStateLocked(types.TimerRunning, time.Now())
	bt.mu.Unlock()
}

// Advance moves the state machine forward by delta. The run loop calls this
// once per tick; tests call it with virtual time.
func (bt *BreakTimer) Advance(delta time.Duration) {
	if delta <= 0 {
		return
	}
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	switch bt.state {
	case types.TimerRunning:
		bt.checkIdleLocked(now)
		if bt.state != types.TimerRunning {
			return
		}
		bt.advanceWorkLocked(delta, now)
	case types.TimerPreBreakWarning:
		bt.advanceWorkLocked(delta, now)
	case types.TimerOnBreak:
		bt.advanceBreakLocked(delta, now)
	case types.TimerExternallyPaused:
		// Idle pauses resolve themselves when the user comes back; other
		// pauses wait for the decision engine or the user
		if bt.pauseReason == types.ReasonIdle {
			bt.checkIdleResumeLocked(now)
		}
	default:
		// idle accumulates nothing
	}
}

// HandleDecision reacts to a change in the pause decision. Edges only: a
// second pause while already paused, or a resume while not paused, is an
// idempotent no-op.
func (bt *BreakTimer) HandleDecision(decision detection.Decision) {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if decision.ShouldPause {
		if bt.state == types.TimerExternallyPaused {
			bt.logger.Debug("External pause while already paused; ignoring")
			return
		}
		if bt.state == types.TimerIdle {
			return
		}

		reason := types.ReasonManual
		if dominant, ok := decision.DominantSignal(); ok {
			reason = dominant.Reason()
		}
		bt.enterExternalPauseLocked(reason, "", now)
		return
	}

	if bt.state != types.TimerExternallyPaused {
		return
	}
	bt.exitExternalPauseLocked(now)
}

// Pause is the user-initiated equivalent of an external pause.
func (bt *BreakTimer) Pause() {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if bt.state == types.TimerExternallyPaused || bt.state == types.TimerIdle {
		bt.logger.Debug("Manual pause ignored", "state", bt.state)
		return
	}
	bt.enterExternalPauseLocked(types.ReasonManual, "", now)
}

// Resume lifts a pause and restores the pre-pause state.
func (bt *BreakTimer) Resume() {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if bt.state != types.TimerExternallyPaused {
		bt.logger.Debug("Resume ignored while not paused", "state", bt.state)
		return
	}
	bt.exitExternalPauseLocked(now)
}

// SkipBreak abandons the pending or current break and returns to idle. The
// break counts as skipped.
func (bt *BreakTimer) SkipBreak() {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if !bt.prefs.AllowSkipBreak {
		bt.logger.Debug("Skip rejected by preferences")
		return
	}
	if bt.state != types.TimerPreBreakWarning && bt.state != types.TimerOnBreak {
		bt.logger.Debug("Skip ignored", "state", bt.state)
		return
	}

	bt.emitLocked(Event{Type: EventBreakEnded, State: bt.state, Completed: false, At: now})
	bt.elapsed = 0
	bt.breakRemaining = 0
	bt.setStateLocked(types.TimerIdle, now)
}

// PostponeBreak pushes the pending break back and returns to running.
func (bt *BreakTimer) PostponeBreak() {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if !bt.prefs.AllowPostponeBreak {
		bt.logger.Debug("Postpone rejected by preferences")
		return
	}
	if bt.state != types.TimerPreBreakWarning {
		bt.logger.Debug("Postpone ignored", "state", bt.state)
		return
	}

	bt.elapsed -= postponeDelay
	if bt.elapsed < 0 {
		bt.elapsed = 0
	}
	bt.setStateLocked(types.TimerRunning, now)
}

// EndBreakEarly completes the break ahead of time. Permitted only in the
// final fifth of the break; the break still counts as completed.
func (bt *BreakTimer) EndBreakEarly() {
	now := time.Now()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if bt.state != types.TimerOnBreak {
		bt.logger.Debug("Early end ignored", "state", bt.state)
		return
	}

	total := time.Duration(bt.prefs.BreakDurationSeconds) * time.Second
	if float64(bt.breakRemaining) > float64(total)*earlyEndFraction {
		bt.logger.Debug("Early end rejected before final stretch",
			"remaining", bt.breakRemaining, "total", total)
		return
	}

	bt.completeBreakLocked(now)
}

func (bt *BreakTimer) loop(stop chan struct{}) {
	ticker := time.NewTicker(bt.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			bt.Advance(bt.options.TickInterval)
		}
	}
}

func (bt *BreakTimer) workInterval() time.Duration {
	return time.Duration(bt.prefs.WorkIntervalSeconds) * time.Second
}

func (bt *BreakTimer) advanceWorkLocked(delta time.Duration, now time.Time) {
	bt.elapsed += delta

	work := bt.workInterval()
	preBreak := time.Duration(bt.prefs.PreBreakSeconds) * time.Second

	if bt.state == types.TimerRunning && preBreak > 0 && bt.elapsed >= work-preBreak && bt.elapsed < work {
		bt.setStateLocked(types.TimerPreBreakWarning, now)
		return
	}
	if bt.elapsed >= work {
		bt.enterBreakLocked(now)
		return
	}
	bt.emitLocked(Event{
		Type:      EventProgress,
		State:     bt.state,
		Remaining: work - bt.elapsed,
		Progress:  float64(bt.elapsed) / float64(work),
		At:        now,
	})
}

func (bt *BreakTimer) advanceBreakLocked(delta time.Duration, now time.Time) {
	bt.breakRemaining -= delta
	if bt.breakRemaining > 0 {
		total := time.Duration(bt.prefs.BreakDurationSeconds) * time.Second
		bt.emitLocked(Event{
			Type:      EventProgress,
			State:     bt.state,
			Remaining: bt.breakRemaining,
			Progress:  float64(total-bt.breakRemaining) / float64(total),
			At:        now,
		})
		return
	}
	bt.completeBreakLocked(now)
}

func (bt *BreakTimer) enterBreakLocked(now time.Time) {
	bt.elapsed = 0
	bt.breakRemaining = time.Duration(bt.prefs.BreakDurationSeconds) * time.Second
	bt.emitLocked(Event{Type: EventBreakStarted, State: types.TimerOnBreak, Remaining: bt.breakRemaining, At: now})
	bt.setStateLocked(types.TimerOnBreak, now)
}

func (bt *BreakTimer) completeBreakLocked(now time.Time) {
	bt.breakRemaining = 0
	bt.emitLocked(Event{Type: EventBreakEnded, State: bt.state, Completed: true, At: now})
	bt.setStateLocked(types.TimerIdle, now)
}

func (bt *BreakTimer) enterExternalPauseLocked(reason types.PauseReason, relatedApp string, now time.Time) {
	bt.previousState = bt.state
	bt.pauseReason = reason
	bt.relatedApp = relatedApp
	bt.emitLocked(Event{
		Type:       EventPauseStarted,
		State:      types.TimerExternallyPaused,
		Reason:     reason,
		RelatedApp: relatedApp,
		At:         now,
	})
	bt.setStateLocked(types.TimerExternallyPaused, now)
}

func (bt *BreakTimer) exitExternalPauseLocked(now time.Time) {
	restored := bt.previousState
	bt.emitLocked(Event{Type: EventPauseEnded, State: restored, Reason: bt.pauseReason, At: now})
	bt.pauseReason = ""
	bt.relatedApp = ""
	bt.setStateLocked(restored, now)
}

// checkIdleLocked samples user inactivity at most once per check interval.
// Long inactivity resets the work accumulation; moderate inactivity pauses
// the timer with the idle reason.
func (bt *BreakTimer) checkIdleLocked(now time.Time) {
	if bt.idleChecker == nil || bt.idleDisabled {
		return
	}
	if !bt.lastIdleCheck.IsZero() && now.Sub(bt.lastIdleCheck) < bt.options.IdleCheckInterval {
		return
	}
	bt.lastIdleCheck = now

	idle, err := bt.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			bt.idleDisabled = true
			bt.logger.Debug("Idle detection unsupported; disabling")
			return
		}
		bt.logger.Debug("Idle probe failed", "error", err)
		return
	}

	resetAfter := time.Duration(bt.prefs.IdleResetMinutes) * time.Minute
	pauseAfter := time.Duration(bt.prefs.IdlePauseMinutes) * time.Minute

	if idle >= resetAfter {
		bt.elapsed = 0
		bt.emitLocked(Event{Type: EventIdleReset, State: bt.state, At: now})
		return
	}
	if idle >= pauseAfter {
		bt.enterExternalPauseLocked(types.ReasonIdle, "", now)
	}
}

// checkIdleResumeLocked ends an idle pause once the user is active again, or
// converts it into a full reset if the inactivity ran long enough.
func (bt *BreakTimer) checkIdleResumeLocked(now time.Time) {
	if bt.idleChecker == nil || bt.idleDisabled {
		bt.exitExternalPauseLocked(now)
		return
	}
	if !bt.lastIdleCheck.IsZero() && now.Sub(bt.lastIdleCheck) < bt.options.IdleCheckInterval {
		return
	}
	bt.lastIdleCheck = now

	idle, err := bt.idleChecker.IdleDuration()
	if err != nil {
		bt.logger.Debug("Idle probe failed during idle pause", "error", err)
		return
	}

	if idle >= time.Duration(bt.prefs.IdleResetMinutes)*time.Minute {
		bt.elapsed = 0
		bt.exitExternalPauseLocked(now)
		bt.emitLocked(Event{Type: EventIdleReset, State: bt.state, At: now})
		return
	}
	if idle < time.Duration(bt.prefs.IdlePauseMinutes)*time.Minute {
		bt.exitExternalPauseLocked(now)
	}
}

func (bt *BreakTimer) setStateLocked(next types.TimerState, now time.Time) {
	if bt.state == next {
		return
	}
	bt.state = next
	bt.emitLocked(Event{Type: EventStateChange, State: next, At: now})
}

func (bt *BreakTimer) emitLocked(event Event) {
	for _, ch := range bt.events {
		select {
		case ch <- event:
		default:
		}
	}
}
