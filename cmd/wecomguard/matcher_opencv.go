//go:build !nocv

package main

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/config"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position/opencv"
)

func newMatcher(backend string, threshold float64, logger *zap.Logger) position.Matcher {
	if backend == config.MatcherNative {
		return position.NewNativeMatcher(threshold)
	}
	logger.Debug("using opencv matcher")
	return opencv.NewMatcher(threshold)
}
