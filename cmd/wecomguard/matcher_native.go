//go:build nocv

package main

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/config"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
)

func newMatcher(backend string, threshold float64, logger *zap.Logger) position.Matcher {
	if backend == config.MatcherOpenCV {
		logger.Warn("built without OpenCV, using native matcher")
	}
	return position.NewNativeMatcher(threshold)
}
