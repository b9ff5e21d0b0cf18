package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
)

// SendFinishFileName is the screenshot written after a message is sent.
const SendFinishFileName = "send_finish.png"

// Step names recorded in SendResult.Steps.
const (
	StepFocusInputCached = "focus_input_cached"
	StepLocateInput      = "locate_input"
	StepFocusInput       = "focus_input"
	StepTypeText         = "type_text"
	StepLocateSend       = "locate_send_button"
	StepClickSend        = "click_send_button"
	StepFallbackAltS     = "fallback_alt_s"
)

// SendStep is one debug record of a send attempt.
type SendStep struct {
	Action string               `yaml:"action"`
	Point  *domain.Point        `yaml:"point,omitempty"`
	Locate *domain.LocateResult `yaml:"locate,omitempty"`
}

// SendResult is returned on success and, with the steps taken so far, on
// failure.
type SendResult struct {
	Screenshot string     `yaml:"screenshot,omitempty"`
	Steps      []SendStep `yaml:"steps"`
}

// SendMessageOptions configures SendMessage.
type SendMessageOptions struct {
	ShotDir string

	// CacheMaxAge is read on every send and bounds the age of cached
	// centers. Nil, or a non-positive result, accepts any cached center.
	CacheMaxAge func() time.Duration
}

// SendMessage focuses the input box, optionally types text and submits it,
// preferring centers cached by the guard over a fresh locate.
type SendMessage struct {
	locator domain.Locator
	input   domain.Inputter
	shots   domain.Screenshotter
	state   *state.RuntimeContext
	opts    SendMessageOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewSendMessage creates the action.
func NewSendMessage(
	locator domain.Locator,
	input domain.Inputter,
	shots domain.Screenshotter,
	rc *state.RuntimeContext,
	opts SendMessageOptions,
	logger *zap.Logger,
) *SendMessage {
	return &SendMessage{
		locator: locator,
		input:   input,
		shots:   shots,
		state:   rc,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute sends text (possibly empty, which submits whatever is already in
// the input box).
func (a *SendMessage) Execute(ctx context.Context, text string) (*SendResult, error) {
	result := &SendResult{Steps: make([]SendStep, 0, 4)}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Freshness is judged once: a write-back below must not make an old
	// send button center look young.
	snap := a.state.Snapshot()
	fresh := a.fresh(snap)
	input, cached := cachedPoint(fresh, snap.InputCenter)
	if cached {
		result.add(SendStep{Action: StepFocusInputCached, Point: &input})
	} else {
		loc := a.locator.Locate(position.TargetInputBox)
		result.add(SendStep{Action: StepLocateInput, Locate: &loc})
		c, ok := loc.Center()
		if !ok {
			err := fmt.Errorf("input box not located: %w", loc.Err())
			a.fail(result, err)
			return result, err
		}
		input = c
		a.state.UpdatePositions(state.PositionUpdate{
			InputCenter: &c,
			LocatedAt:   a.now(),
			Screenshot:  loc.ScreenshotPath,
		})
	}

	if err := a.input.MoveAndClick(input.X, input.Y); err != nil {
		err = fmt.Errorf("focus input box: %w", err)
		a.fail(result, err)
		return result, err
	}
	result.add(SendStep{Action: StepFocusInput, Point: &input})

	if text != "" {
		if err := a.input.TypeText(text); err != nil {
			err = fmt.Errorf("type text: %w", err)
			a.fail(result, err)
			return result, err
		}
		result.add(SendStep{Action: StepTypeText})
	}

	send, ok := cachedPoint(fresh, snap.SendButtonCenter)
	if !ok {
		loc := a.locator.Locate(position.TargetSendButton)
		result.add(SendStep{Action: StepLocateSend, Locate: &loc})
		if c, found := loc.Center(); found {
			send, ok = c, true
			a.state.UpdatePositions(state.PositionUpdate{
				SendButtonCenter: &c,
				LocatedAt:        a.now(),
				Screenshot:       loc.ScreenshotPath,
			})
		}
	}

	if ok {
		if err := a.input.MoveAndClick(send.X, send.Y); err != nil {
			err = fmt.Errorf("click send button: %w", err)
			a.fail(result, err)
			return result, err
		}
		result.add(SendStep{Action: StepClickSend, Point: &send})
	} else {
		if err := a.input.PressAltS(); err != nil {
			err = fmt.Errorf("press alt+s: %w", err)
			a.fail(result, err)
			return result, err
		}
		result.add(SendStep{Action: StepFallbackAltS})
	}

	path, err := a.shots.Capture(filepath.Join(a.opts.ShotDir, SendFinishFileName))
	if err != nil {
		a.fail(result, err)
		return result, err
	}
	result.Screenshot = path

	a.logger.Info("send message ok",
		zap.String("screenshot", path),
		zap.Int("steps", len(result.Steps)))
	return result, nil
}

// fresh reports whether the centers in snap are young enough to use.
func (a *SendMessage) fresh(snap state.Snapshot) bool {
	if a.opts.CacheMaxAge == nil {
		return true
	}
	maxAge := a.opts.CacheMaxAge()
	if maxAge <= 0 {
		return true
	}
	at := snap.Meta.LastLocateAt
	return !at.IsZero() && a.now().Sub(at) < maxAge
}

func cachedPoint(fresh bool, p *domain.Point) (domain.Point, bool) {
	if !fresh || p == nil {
		return domain.Point{}, false
	}
	return *p, true
}

func (a *SendMessage) fail(result *SendResult, err error) {
	a.logger.Error("send message failed",
		zap.Error(err),
		zap.Any("steps", result.Steps))
}

func (r *SendResult) add(s SendStep) {
	r.Steps = append(r.Steps, s)
}
