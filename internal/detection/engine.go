package detection

import (
	"context"
	"sync"
	"time"

	"restwell/internal/infrastructure/logging"
	"restwell/internal/platform"
	"restwell/internal/types"
)

// Decision is the atomically published result of one sampling pass. Readers
// always observe a complete triple; the engine never mutates a published
// value.
type Decision struct {
	ShouldPause   bool                `json:"shouldPause"`
	ActiveSignals []types.PauseSignal `json:"activeSignals"`
	TotalWeight   int                 `json:"totalWeight"`
	SampledAt     time.Time           `json:"sampledAt"`
}

// DominantSignal returns the highest-weight active signal. The second result
// is false when no signal is active.
func (d Decision) DominantSignal() (types.PauseSignal, bool) {
	if len(d.ActiveSignals) == 0 {
		return 0, false
	}
	// ActiveSignals is produced in descending weight order
	return d.ActiveSignals[0], true
}

// equivalent reports whether two decisions would be indistinguishable to a
// subscriber. Used for edge-triggered publishing.
func (d Decision) equivalent(other Decision) bool {
	if d.ShouldPause != other.ShouldPause || d.TotalWeight != other.TotalWeight {
		return false
	}
	if len(d.ActiveSignals) != len(other.ActiveSignals) {
		return false
	}
	for i := range d.ActiveSignals {
		if d.ActiveSignals[i] != other.ActiveSignals[i] {
			return false
		}
	}
	return true
}

// Engine polls the platform probes, maps active facts to pause signals, and
// publishes whether the break timer should hold. Stopping the engine freezes
// the last published decision rather than clearing it.
type Engine struct {
	api      platform.ActivityAPI
	meetings platform.MeetingDetector
	logger   logging.Logger

	mu          sync.RWMutex
	config      *types.PauseDecisionConfig
	decision    Decision
	subscribers []chan Decision
	stop        chan struct{}
	running     bool
}

// NewEngine creates a decision engine. A nil meetings detector disables the
// calendar signal; a nil config starts from defaults.
func NewEngine(api platform.ActivityAPI, meetings platform.MeetingDetector, config *types.PauseDecisionConfig, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if config == nil {
		config = types.DefaultPauseDecisionConfig()
	}
	config.Normalize()
	if meetings == nil {
		meetings = platform.NoMeetings{}
	}

	e := &Engine{
		api:      api,
		meetings: meetings,
		logger:   logger,
		config:   config,
	}
	e.warnIfUnreachable(config)
	return e
}

// ApplyConfig swaps in a new configuration. The next poll uses it; the
// current published decision is left untouched.
func (e *Engine) ApplyConfig(config *types.PauseDecisionConfig) {
	if config == nil {
		return
	}
	config.Normalize()
	e.warnIfUnreachable(config)

	e.mu.Lock()
	e.config = config
	e.mu.Unlock()
}

// Config returns the active configuration.
func (e *Engine) Config() *types.PauseDecisionConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// An unreachable threshold keeps the engine running but can never pause;
// we surface that loudly once instead of failing validation.
func (e *Engine) warnIfUnreachable(config *types.PauseDecisionConfig) {
	if reachable := config.MaxReachableWeight(); reachable < config.PauseThreshold {
		e.logger.Warn("Pause threshold exceeds maximum reachable signal weight; automatic pause can never trigger",
			"threshold", config.PauseThreshold,
			"maxReachableWeight", reachable)
	}
}

// Subscribe returns a channel receiving a Decision whenever the published
// value changes. Slow subscribers drop updates instead of blocking the poll
// loop.
func (e *Engine) Subscribe(buffer int) <-chan Decision {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Decision, buffer)

	e.mu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.mu.Unlock()

	return ch
}

// Decision returns the last published decision.
func (e *Engine) Decision() Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.decision
}

// Start launches the polling loop. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	interval := e.config.PollingDuration()
	e.mu.Unlock()

	e.logger.Info("Starting pause decision engine", "pollingInterval", interval)

	go e.pollLoop(ctx, stop)
}

// Stop halts the polling loop. The last published decision stays visible.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stop)
	e.logger.Info("Stopped pause decision engine")
}

// Running reports whether the polling loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) pollLoop(ctx context.Context, stop chan struct{}) {
	e.Refresh()

	ticker := time.NewTicker(e.Config().PollingDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Refresh()
			// Pick up interval changes applied since the last tick
			ticker.Reset(e.Config().PollingDuration())
		case <-stop:
			return
		case <-ctx.Done():
			e.Stop()
			return
		}
	}
}

// Refresh samples every enabled probe, recomputes the decision, and
// publishes it atomically. It is safe to call concurrently with the poll
// loop, though normally only the loop and explicit force-refresh calls do.
func (e *Engine) Refresh() Decision {
	config := e.Config()

	active := e.sample(config)

	total := 0
	for _, s := range active {
		total += s.Weight()
	}

	next := Decision{
		ShouldPause:   total >= config.PauseThreshold,
		ActiveSignals: active,
		TotalWeight:   total,
		SampledAt:     time.Now(),
	}

	e.publish(next)
	return next
}

// publish stores the decision and notifies subscribers on change only.
func (e *Engine) publish(next Decision) {
	e.mu.Lock()
	changed := !next.equivalent(e.decision)
	e.decision = next
	subscribers := e.subscribers
	e.mu.Unlock()

	if !changed {
		return
	}

	e.logger.Debug("Pause decision changed",
		"shouldPause", next.ShouldPause,
		"totalWeight", next.TotalWeight,
		"signals", len(next.ActiveSignals))

	for _, ch := range subscribers {
		select {
		case ch <- next:
		default:
			e.logger.Debug("Dropping decision update for slow subscriber")
		}
	}
}

// sample runs every enabled detector and returns the active signals in
// descending weight order.
func (e *Engine) sample(config *types.PauseDecisionConfig) []types.PauseSignal {
	found := make(map[types.PauseSignal]bool)

	frontmost := e.frontmostApp()

	if config.FullscreenDetectionEnabled {
		if s, ok := e.detectFullscreen(config, frontmost); ok {
			found[s] = true
		}
	}
	if config.ScreenRecordingDetectionEnabled {
		e.detectCapture(config, frontmost, found)
	}
	if config.MeetingAppDetectionEnabled {
		if e.detectMeetingApp(config, frontmost) {
			found[types.SignalMeetingAppActive] = true
		}
		if e.detectCalendarMeeting() {
			found[types.SignalCalendarMeeting] = true
		}
	}
	if config.FocusModeDetectionEnabled {
		if e.detectFocusMode() {
			found[types.SignalFocusModeActive] = true
		}
	}

	active := make([]types.PauseSignal, 0, len(found))
	for _, s := range types.AllPauseSignals {
		if found[s] && !config.SignalDisabled(s) {
			active = append(active, s)
		}
	}
	return active
}

func (e *Engine) frontmostApp() *platform.AppInfo {
	app, err := e.api.FrontmostApp()
	if err != nil {
		e.logger.Debug("Frontmost app probe failed", "error", err)
		return nil
	}
	return app
}

func (e *Engine) whitelisted(config *types.PauseDecisionConfig, name string) bool {
	normalized := normalizeAppName(name)
	for _, w := range config.WhitelistedApps {
		if normalizeAppName(w) == normalized {
			return true
		}
	}
	return false
}

// detectFullscreen emits fullscreenApp when the frontmost window covers the
// display, upgraded to fullscreenVideo or presentationMode for known apps.
func (e *Engine) detectFullscreen(config *types.PauseDecisionConfig, app *platform.AppInfo) (types.PauseSignal, bool) {
	if app == nil || app.IsSelf || app.Name == "" {
		return 0, false
	}
	if e.whitelisted(config, app.Name) {
		return 0, false
	}

	window, err := e.api.WindowBounds()
	if err != nil {
		e.logger.Debug("Window bounds probe failed", "error", err)
		return 0, false
	}
	display, err := e.api.DisplayBounds()
	if err != nil {
		e.logger.Debug("Display bounds probe failed", "error", err)
		return 0, false
	}
	if !coversDisplay(window, display) {
		return 0, false
	}

	switch {
	case inSet(knownVideoPlayers, app.Name):
		return types.SignalFullscreenVideo, true
	case inSet(knownPresentationApps, app.Name):
		return types.SignalPresentationMode, true
	default:
		return types.SignalFullscreenApp, true
	}
}

// Edge and menu-bar tolerances in pixels for the fullscreen coverage check.
const (
	edgeTolerancePx    = 2
	menuBarTolerancePx = 40
)

func coversDisplay(window, display platform.Rect) bool {
	if display.Width <= 0 || display.Height <= 0 {
		return false
	}
	if window.Width < display.Width-edgeTolerancePx {
		return false
	}
	// The vertical span may miss the top by a menu bar
	return window.Height >= display.Height-menuBarTolerancePx
}

// detectCapture ORs three independent probes: the platform capture API, a
// sharing-daemon process heuristic, and a frontmost recording-tool match.
// More than one signal may fire at once.
func (e *Engine) detectCapture(config *types.PauseDecisionConfig, app *platform.AppInfo, found map[types.PauseSignal]bool) {
	captured, err := e.api.IsScreenBeingCaptured()
	if err != nil {
		e.logger.Debug("Screen capture probe failed", "error", err)
	} else if captured {
		found[types.SignalScreenRecording] = true
	}

	sharing, err := e.api.IsScreenSharingActive()
	if err != nil {
		e.logger.Debug("Screen sharing probe failed", "error", err)
	} else if sharing {
		found[types.SignalScreenSharing] = true
	}

	if !found[types.SignalScreenSharing] {
		if names, procErr := e.api.RunningProcessNames(); procErr != nil {
			e.logger.Debug("Process snapshot probe failed", "error", procErr)
		} else {
			for _, name := range names {
				if inSet(knownSharingDaemons, name) {
					found[types.SignalScreenSharing] = true
					break
				}
			}
		}
	}

	if app != nil && !app.IsSelf && !e.whitelisted(config, app.Name) && inSet(knownRecordingTools, app.Name) {
		found[types.SignalScreenRecording] = true
	}
}

func (e *Engine) detectMeetingApp(config *types.PauseDecisionConfig, app *platform.AppInfo) bool {
	if app == nil || app.IsSelf || app.Name == "" {
		return false
	}
	if e.whitelisted(config, app.Name) {
		return false
	}
	return inSet(knownMeetingApps, app.Name)
}

func (e *Engine) detectCalendarMeeting() bool {
	inMeeting, err := e.meetings.IsInCalendarMeeting()
	if err != nil {
		e.logger.Debug("Calendar meeting probe failed", "error", err)
		return false
	}
	return inMeeting
}

func (e *Engine) detectFocusMode() bool {
	active, err := e.api.IsFocusModeActive()
	if err != nil {
		e.logger.Debug("Focus mode probe failed", "error", err)
		return false
	}
	return active
}
