// Package usecase contains the request-driven actions: bringing the target
// window to the front, sending a message, and checking the environment.
package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/window"
)

// MaxAndTopFileName is the screenshot written after a successful placement.
const MaxAndTopFileName = "max_and_top.png"

// MaxAndTopResult describes a completed placement.
type MaxAndTopResult struct {
	Window     domain.WindowSnapshot `yaml:"window"`
	Screenshot string                `yaml:"screenshot"`
}

// MaxAndTop maximizes the target window, pins it topmost and captures the
// desktop as proof.
type MaxAndTop struct {
	controller domain.WindowController
	shots      domain.Screenshotter
	state      *state.RuntimeContext
	shotDir    string
	logger     *zap.Logger
}

// NewMaxAndTop creates the action. Screenshots go to shotDir.
func NewMaxAndTop(
	controller domain.WindowController,
	shots domain.Screenshotter,
	rc *state.RuntimeContext,
	shotDir string,
	logger *zap.Logger,
) *MaxAndTop {
	return &MaxAndTop{
		controller: controller,
		shots:      shots,
		state:      rc,
		shotDir:    shotDir,
		logger:     logger,
	}
}

// Execute runs the placement once. A stale handle is re-resolved once per
// step; any other failure ends the action.
func (a *MaxAndTop) Execute(ctx context.Context) (*MaxAndTopResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, _, err := a.controller.FindBestWindow()
	if err != nil {
		a.logger.Error("max and top: window not found", zap.Error(err))
		return nil, err
	}

	h, err = window.RetryInvalidHandle(a.controller.FindBestWindow, h, a.controller.ActivateAndMaximize)
	if err != nil {
		a.logger.Error("max and top: activate failed", zap.Uint64("hwnd", uint64(h)), zap.Error(err))
		return nil, fmt.Errorf("activate_and_maximize hwnd=%d: %w", h, err)
	}

	h, err = window.RetryInvalidHandle(a.controller.FindBestWindow, h, a.controller.SetTopmost)
	if err != nil {
		a.logger.Error("max and top: topmost failed", zap.Uint64("hwnd", uint64(h)), zap.Error(err))
		return nil, fmt.Errorf("set_topmost hwnd=%d: %w", h, err)
	}
	if a.state != nil {
		a.state.MarkMaxTop(time.Time{})
	}

	result := &MaxAndTopResult{}
	if snap, err := a.controller.Describe(h); err == nil {
		result.Window = snap
	} else {
		a.logger.Debug("describe after placement failed", zap.Error(err))
		result.Window = domain.WindowSnapshot{Handle: h}
	}

	path, err := a.shots.Capture(filepath.Join(a.shotDir, MaxAndTopFileName))
	if err != nil {
		a.logger.Error("max and top: screenshot failed", zap.Error(err))
		return nil, err
	}
	result.Screenshot = path

	a.logger.Info("max and top ok",
		zap.Uint64("hwnd", uint64(h)),
		zap.String("title", result.Window.Title),
		zap.String("screenshot", path))
	return result, nil
}
