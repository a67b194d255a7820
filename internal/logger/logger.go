// Package logger holds the process-wide zap logger used by flowtag components.
//
// The default logger is a no-op so library code can log unconditionally;
// binaries call Initialize once after reading their configuration.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// Initialize replaces the global logger. level is one of debug, info, warn,
// error; an unknown level falls back to info. jsonOutput selects the
// production JSON encoder instead of the console encoder.
func Initialize(level string, jsonOutput bool) error {
	var cfg zap.Config
	if jsonOutput {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(zl.Sugar())
	return nil
}

// Set installs l as the global logger. A nil l restores the no-op logger.
func Set(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the global logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// ComponentLogger returns the global logger tagged with a component name.
// This is the preferred way to get a logger for dependency injection.
func ComponentLogger(component string) *zap.SugaredLogger {
	return L().With(FieldComponent, component)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = L().Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
