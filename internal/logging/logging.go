// Package logging bootstraps the shared zap logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// Logger returns the process-wide logger, building it on first use.
// Console encoding with ISO8601 timestamps keeps CI logs readable.
func Logger() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		logger, _ = cfg.Build()
	})
	return logger
}

// Sugar returns the sugared form of the shared logger
func Sugar() *zap.SugaredLogger {
	return Logger().Sugar()
}
