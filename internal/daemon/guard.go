// Package daemon implements the guard: a single background worker that
// keeps the target window maximized and topmost and refreshes the cached
// control positions.
package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/window"
)

// Recorded as last_error.
const (
	ErrMsgWindowNotFound = "wecom_window_not_found"
	ErrMsgLocateFailed   = "locate_failed"
)

const (
	MinTickInterval          = 200 * time.Millisecond
	MinLocateRefreshInterval = time.Second
)

// GuardConfig holds guard configuration.
type GuardConfig struct {
	TickInterval          time.Duration `yaml:"tick_interval"`           // Between tick starts
	LocateRefreshInterval time.Duration `yaml:"locate_refresh_interval"` // Max age of cached positions
}

// DefaultGuardConfig returns default guard configuration.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		TickInterval:          time.Second,
		LocateRefreshInterval: 15 * time.Second,
	}
}

// Clamped raises intervals below their minimum.
func (c GuardConfig) Clamped() GuardConfig {
	c.TickInterval = max(c.TickInterval, MinTickInterval)
	c.LocateRefreshInterval = max(c.LocateRefreshInterval, MinLocateRefreshInterval)
	return c
}

// GuardConfigUpdate is a partial config change; nil fields are kept.
type GuardConfigUpdate struct {
	TickInterval          *time.Duration
	LocateRefreshInterval *time.Duration
}

// Guard is the window and position maintenance daemon.
// States: stopped -> running -> stopped; it may be restarted.
type Guard struct {
	controller domain.WindowController
	locator    domain.Locator
	screens    domain.ScreenMetrics
	state      *state.RuntimeContext
	logger     *zap.Logger

	// ArtifactsDir receives locate.png and locate_annotated.png.
	artifactsDir string
	now          func() time.Time

	mu     sync.Mutex
	config GuardConfig
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGuard creates a stopped guard.
func NewGuard(
	config GuardConfig,
	controller domain.WindowController,
	locator domain.Locator,
	screens domain.ScreenMetrics,
	rc *state.RuntimeContext,
	artifactsDir string,
	logger *zap.Logger,
) *Guard {
	return &Guard{
		controller:   controller,
		locator:      locator,
		screens:      screens,
		state:        rc,
		logger:       logger,
		artifactsDir: artifactsDir,
		now:          time.Now,
		config:       config.Clamped(),
	}
}

// Config returns the current configuration.
func (g *Guard) Config() GuardConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

// UpdateConfig applies a partial change; it takes effect at the next tick.
func (g *Guard) UpdateConfig(u GuardConfigUpdate) GuardConfig {
	g.mu.Lock()
	defer g.mu.Unlock()

	if u.TickInterval != nil {
		g.config.TickInterval = *u.TickInterval
	}
	if u.LocateRefreshInterval != nil {
		g.config.LocateRefreshInterval = *u.LocateRefreshInterval
	}
	g.config = g.config.Clamped()
	return g.config
}

// Start launches the worker. It is a no-op if already running and reports
// whether a worker was started.
func (g *Guard) Start() bool {
	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		return false
	}
	prev := g.done
	g.mu.Unlock()

	// A worker left over from a timed-out Stop is already cancelled; let it
	// finish its tick so two workers never overlap. It needs g.mu to exit.
	if prev != nil {
		<-prev
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	g.cancel, g.done = cancel, done

	go func() {
		defer close(done)
		g.Run(ctx)
	}()

	g.logger.Info("guard started",
		zap.Duration("tick_interval", g.config.TickInterval),
		zap.Duration("locate_refresh_interval", g.config.LocateRefreshInterval))
	return true
}

// Stop cancels the worker and waits up to timeout for the current tick to
// finish. The guard is stopped afterwards either way; the result reports
// whether the worker has exited, including one left by an earlier Stop
// that timed out.
func (g *Guard) Stop(timeout time.Duration) bool {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel = nil
	g.mu.Unlock()

	if done == nil {
		return true
	}
	if cancel != nil {
		cancel()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		g.logger.Info("guard stopped")
		return true
	case <-timer.C:
		g.logger.Warn("guard stop timed out", zap.Duration("timeout", timeout))
		return false
	}
}

// IsRunning reports whether the worker is running and not stopping.
func (g *Guard) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel == nil || g.done == nil {
		return false
	}
	select {
	case <-g.done:
		return false
	default:
		return true
	}
}

// Run ticks until ctx is cancelled. Ticks start roughly every TickInterval:
// the time spent in a tick is subtracted from the wait.
func (g *Guard) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		g.runTick(ctx, g.now())

		wait := g.Config().TickInterval - time.Since(started)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runTick never lets a fault escape: panics are logged and recorded.
func (g *Guard) runTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("guard_tick_panic: %v", r)
			g.logger.Error("guard tick failed",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			g.state.SetLastError(msg)
		}
	}()

	g.Tick(ctx, now)
}

// Tick runs one maintenance pass.
func (g *Guard) Tick(ctx context.Context, now time.Time) {
	if ctx.Err() != nil {
		return
	}
	cfg := g.Config()

	g.state.MarkGuardTick(now)
	g.refreshScreenSizes()

	h, samples, err := g.controller.FindBestWindow()
	if err != nil {
		g.logger.Debug("target window not found",
			zap.Error(err),
			zap.Strings("sample_titles", samples))
		g.state.SetLastError(ErrMsgWindowNotFound)
		return
	}

	g.ensurePlacement(h, now)

	if g.state.PositionsFresh(now, cfg.LocateRefreshInterval) {
		return
	}
	g.refreshPositions(now)
}

func (g *Guard) refreshScreenSizes() {
	if g.screens == nil {
		return
	}
	var physical, logical *domain.Size
	if s, err := g.screens.PhysicalSize(); err == nil {
		physical = &s
	}
	if s, err := g.screens.LogicalSize(); err == nil {
		logical = &s
	}
	g.state.UpdateScreenSizes(physical, logical)
}

// ensurePlacement maximizes and pins the window when needed. Both steps are
// attempted independently; a stale handle is re-resolved once per step.
func (g *Guard) ensurePlacement(h domain.WindowHandle, now time.Time) {
	find := g.controller.FindBestWindow

	var snap domain.WindowSnapshot
	h, err := window.RetryInvalidHandle(find, h, func(h domain.WindowHandle) error {
		var err error
		snap, err = g.controller.Describe(h)
		return err
	})
	needMaximize, needTopmost := true, true
	if err != nil {
		g.logger.Debug("describe failed", zap.Error(err))
	} else {
		needMaximize, needTopmost = !snap.IsMaximized, !snap.IsTopmost
	}

	if needMaximize {
		h, err = window.RetryInvalidHandle(find, h, g.controller.ActivateAndMaximize)
		if err != nil {
			msg := "activate_and_maximize_failed: " + err.Error()
			g.logger.Warn(msg)
			g.state.SetLastError(msg)
		} else {
			g.state.MarkMaxTop(now)
		}
	}

	if needTopmost {
		_, err = window.RetryInvalidHandle(find, h, g.controller.SetTopmost)
		if err != nil {
			msg := "set_topmost_failed: " + err.Error()
			g.logger.Warn(msg)
			g.state.SetLastError(msg)
		} else {
			g.state.MarkMaxTop(now)
		}
	}
}

// refreshPositions locates both tracked controls against one screenshot.
func (g *Guard) refreshPositions(now time.Time) {
	dir := filepath.Join(g.artifactsDir, "guard")
	results := g.locator.LocateMany(
		[]string{position.TargetInputBox, position.TargetSendButton},
		filepath.Join(dir, "locate.png"),
		filepath.Join(dir, "locate_annotated.png"),
	)
	input, send := results[position.TargetInputBox], results[position.TargetSendButton]

	update := state.PositionUpdate{LocatedAt: now}
	if c, ok := input.Center(); ok {
		update.InputCenter = &c
	}
	if c, ok := send.Center(); ok {
		update.SendButtonCenter = &c
	}

	if update.InputCenter == nil && update.SendButtonCenter == nil {
		g.logger.Warn("locate failed",
			zap.NamedError("input_box", input.Err()),
			zap.NamedError("send_button", send.Err()))
		g.state.SetLastError(ErrMsgLocateFailed)
		return
	}

	for _, r := range []domain.LocateResult{input, send} {
		if update.Screenshot == "" {
			update.Screenshot = r.ScreenshotPath
		}
		if update.Annotated == "" {
			update.Annotated = r.AnnotatedPath
		}
	}
	g.state.UpdatePositions(update)
	g.state.SetLastError("")

	g.logger.Debug("positions refreshed",
		zap.Bool("input_box", update.InputCenter != nil),
		zap.Bool("send_button", update.SendButtonCenter != nil))
}
