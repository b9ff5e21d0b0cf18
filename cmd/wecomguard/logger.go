package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/config"
)

// createLogger logs to stderr and the log file. Stdout is left alone: the
// stdio MCP transport and YAML command output use it.
func createLogger(cfg config.LogConfig) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err == nil {
			zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.File)
			zapConfig.ErrorOutputPaths = append(zapConfig.ErrorOutputPaths, cfg.File)
		}
	}
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// Fallback to stderr only if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}
