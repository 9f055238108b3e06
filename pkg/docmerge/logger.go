package docmerge

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger   = zap.NewNop()
	globalLoggerMu sync.RWMutex
)

// SetLogger installs the logger used by the package. A nil logger silences
// logging.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// GetLogger returns the logger used by the package.
func GetLogger() *zap.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// ParseLogLevel maps a config level name to a zap level. "off" maps to a
// level above fatal so nothing is written.
func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "off":
		return zapcore.FatalLevel + 1
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a console logger at the given config level, the way the
// CLI configures it.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(ParseLogLevel(level))
	return config.Build()
}
