package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"restwell/internal/database"
	"restwell/internal/detection"
	"restwell/internal/export"
	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
	"restwell/internal/insights"
	"restwell/internal/ledger"
	"restwell/internal/platform"
	"restwell/internal/repository"
	"restwell/internal/timer"
	"restwell/internal/types"
)

const (
	// healthCheckTimeout bounds the startup database health probe
	healthCheckTimeout = 5 * time.Second
	// closeTimeout bounds the database close during shutdown
	closeTimeout = 10 * time.Second
	// insightHistoryDays covers this week plus the prior comparison week
	insightHistoryDays = 14
)

// errNoPersistence is returned by operations that require the store while
// the app is running degraded.
var errNoPersistence = repoerrors.New("export",
	errors.New("persistence unavailable"), repoerrors.ErrCodeConnection)

// App wires the decision engine, break timer, and adherence ledger together
// and exposes the command surface consumed by the CLI or a UI layer.
type App struct {
	ctx         context.Context
	environment string
	logger      logging.Logger

	dbService  database.Service
	repository repository.AdherenceRepository

	engine     *detection.Engine
	breakTimer *timer.BreakTimer
	ledger     *ledger.Ledger
	exporter   *export.Exporter

	mu         sync.Mutex
	monitoring bool
	wg         sync.WaitGroup
	eventsDone chan struct{}
}

// NewApp builds the application graph for the given environment. A database
// that cannot be opened or migrated degrades the app to memory-only
// operation instead of failing construction; the timer must keep working
// even when nothing can be saved.
func NewApp(env string, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	a := &App{
		environment: env,
		logger:      logger,
	}

	repoerrors.SetRetryLogger(repoerrors.NewLoggerBridge(logger))

	config := database.ConfigForEnvironment(env)
	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(context.Background(), config); err != nil {
		logger.Error("Database unavailable; continuing without persistence", "error", err)
	} else if err := dbService.Migrate(context.Background()); err != nil {
		logger.Error("Database migration failed; continuing without persistence", "error", err)
		dbService.Close()
	} else {
		a.dbService = dbService
		a.repository = repository.NewSQLiteRepository(dbService, logger)
		a.exporter = export.NewExporter(a.repository, logger)
	}

	decisionConfig := a.loadDecisionConfig()
	prefs := a.loadPreferences()

	a.engine = detection.NewEngine(platform.NewActivityAPI(), platform.NoMeetings{}, decisionConfig, logger)
	a.breakTimer = timer.New(prefs, timer.Options{}, logger)
	a.breakTimer.SetIdleChecker(platform.NewIdleProvider())
	a.ledger = ledger.New(a.repository, prefs, ledger.RealClock{}, logger)
	a.ledger.SetRetentionDays(config.RetentionDays)

	return a
}

// loadDecisionConfig returns the stored engine configuration, falling back
// to defaults when nothing valid is stored.
func (a *App) loadDecisionConfig() *types.PauseDecisionConfig {
	if a.repository == nil {
		return types.DefaultPauseDecisionConfig()
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	config, err := a.repository.GetDecisionConfig(ctx)
	if err != nil {
		if !repoerrors.IsNotFound(err) {
			a.logger.Warn("Failed to load decision config; using defaults", "error", err)
		}
		return types.DefaultPauseDecisionConfig()
	}
	return config
}

// loadPreferences returns stored timer preferences or the defaults.
func (a *App) loadPreferences() types.Preferences {
	if a.repository == nil {
		return types.DefaultPreferences()
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	prefs, err := a.repository.GetPreferences(ctx)
	if err != nil {
		if !repoerrors.IsNotFound(err) {
			a.logger.Warn("Failed to load preferences; using defaults", "error", err)
		}
		return types.DefaultPreferences()
	}
	return *prefs
}

// Startup starts the timer loop and the event plumbing between components.
// Monitoring starts separately so headless commands (export, reset) can run
// without polling the OS.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.eventsDone = make(chan struct{})

	a.breakTimer.Run()

	decisions := a.engine.Subscribe(8)
	events := a.breakTimer.Subscribe(16)

	a.wg.Add(2)
	go a.forwardDecisions(ctx, decisions)
	go a.consumeTimerEvents(events)

	a.logger.Info("Application started", "environment", a.environment,
		"persistence", a.repository != nil)
}

// forwardDecisions feeds engine output into the timer. Reacting here, not
// in the poll loop, keeps the timer edge-triggered.
func (a *App) forwardDecisions(ctx context.Context, decisions <-chan detection.Decision) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.eventsDone:
			return
		case decision := <-decisions:
			a.breakTimer.HandleDecision(decision)
		}
	}
}

// consumeTimerEvents translates timer transitions into ledger records. The
// loop ends when the timer closes its event channels on Stop.
func (a *App) consumeTimerEvents(events <-chan timer.Event) {
	defer a.wg.Done()
	for event := range events {
		switch event.Type {
		case timer.EventBreakEnded:
			a.ledger.RecordBreak(event.Completed)
		case timer.EventPauseStarted:
			a.ledger.StartPause(event.Reason, event.RelatedApp)
		case timer.EventPauseEnded:
			a.ledger.EndPause()
		}
	}
}

// StartMonitoring begins polling the OS for pause signals.
func (a *App) StartMonitoring() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.monitoring {
		return
	}
	a.monitoring = true
	a.engine.Start(a.ctx)
}

// StopMonitoring halts signal polling. The last decision stays visible.
func (a *App) StopMonitoring() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.monitoring {
		return
	}
	a.monitoring = false
	a.engine.Stop()
}

// ForceRefresh samples all signal sources immediately.
func (a *App) ForceRefresh() detection.Decision {
	return a.engine.Refresh()
}

// StartSession opens a ledger session and starts the work interval.
func (a *App) StartSession() {
	a.ledger.StartSession()
	a.breakTimer.StartWork()
}

// EndSession closes the active session. The timer keeps its state; ending a
// session does not imply the user walked away from a running break.
func (a *App) EndSession() {
	a.ledger.EndSession()
}

// RecordBreak books a completed or skipped break directly, for callers that
// drive breaks outside the timer.
func (a *App) RecordBreak(completed bool) {
	a.ledger.RecordBreak(completed)
}

// RecordNudge books a followed or dismissed wellness nudge.
func (a *App) RecordNudge(followed bool) {
	a.ledger.RecordNudge(followed)
}

// PauseTimer is the user-initiated hold.
func (a *App) PauseTimer() {
	a.breakTimer.Pause()
}

// ResumeTimer releases a user-initiated hold.
func (a *App) ResumeTimer() {
	a.breakTimer.Resume()
}

// SkipBreak skips the pending or running break, subject to preferences.
func (a *App) SkipBreak() {
	a.breakTimer.SkipBreak()
}

// PostponeBreak pushes the pending break back, subject to preferences.
func (a *App) PostponeBreak() {
	a.breakTimer.PostponeBreak()
}

// EndBreakEarly finishes the break now if it is nearly over.
func (a *App) EndBreakEarly() {
	a.breakTimer.EndBreakEarly()
}

// ResetAllStats wipes the ledger and all persisted history.
func (a *App) ResetAllStats() error {
	return a.ledger.ResetAll()
}

// ApplyConfig validates, persists, and activates a new engine configuration.
func (a *App) ApplyConfig(config *types.PauseDecisionConfig) {
	if config == nil {
		return
	}
	config.Normalize()
	a.engine.ApplyConfig(config)

	if a.repository == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := a.repository.SaveDecisionConfig(ctx, config); err != nil {
		a.logger.Warn("Failed to persist decision config", "error", err)
	}
}

// ApplyPreferences validates, persists, and activates new timer settings.
func (a *App) ApplyPreferences(prefs types.Preferences) {
	prefs.Normalize()
	a.breakTimer.UpdatePreferences(prefs)
	a.ledger.UpdatePreferences(prefs)

	if a.repository == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := a.repository.SavePreferences(ctx, &prefs); err != nil {
		a.logger.Warn("Failed to persist preferences", "error", err)
	}
}

// TimerState returns the current state machine position.
func (a *App) TimerState() types.TimerState {
	return a.breakTimer.State()
}

// CurrentDecision returns the last published pause decision.
func (a *App) CurrentDecision() detection.Decision {
	return a.engine.Decision()
}

// TodayStats returns today's rollup as of now.
func (a *App) TodayStats() types.DayStats {
	return a.ledger.TodayStats()
}

// Aggregated returns the rollup for the requested period.
func (a *App) Aggregated(period types.StatsPeriod) types.AggregatedStats {
	return a.ledger.Aggregated(period)
}

// Streak returns the current consecutive-goal-day count.
func (a *App) Streak() int {
	return a.ledger.Streak()
}

// Insights regenerates the insight list from current aggregates. The
// previous list is discarded wholesale.
func (a *App) Insights() []types.WellnessInsight {
	history := a.ledger.HistoryWindow(insightHistoryDays)
	followed, dismissed := a.ledger.NudgeTotals()

	snap := insights.Snapshot{
		Today:                 a.ledger.TodayStats(),
		Week:                  history[7:],
		PriorWeek:             history[:7],
		Streak:                a.ledger.Streak(),
		LongestStretchMinutes: a.ledger.LongestStretchMinutes(),
		NudgesFollowed:        followed,
		NudgesDismissed:       dismissed,
	}
	return insights.Generate(snap)
}

// ExportJSON renders all persisted history as a JSON document.
func (a *App) ExportJSON(ctx context.Context) ([]byte, error) {
	if a.exporter == nil {
		return nil, errNoPersistence
	}
	return a.exporter.JSON(ctx, time.Now())
}

// ExportCSV renders per-day history as CSV.
func (a *App) ExportCSV(ctx context.Context) ([]byte, error) {
	if a.exporter == nil {
		return nil, errNoPersistence
	}
	return a.exporter.CSV(ctx, time.Now())
}

// Shutdown stops monitoring, flushes the ledger, and closes the database.
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("Starting application shutdown")

	a.StopMonitoring()
	if a.eventsDone != nil {
		close(a.eventsDone)
	}
	a.breakTimer.Stop()
	a.wg.Wait()

	a.ledger.Stop()

	if err := a.closeDatabase(ctx); err != nil {
		a.logger.Error("Error closing database", "error", err)
	}

	a.logger.Info("Application shutdown completed")
}

// closeDatabase closes the store without letting a hung driver block
// shutdown past the timeout.
func (a *App) closeDatabase(ctx context.Context) error {
	if a.dbService == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return repoerrors.New("shutdown", ctx.Err(), repoerrors.ErrCodeTimeout)
	}
}
