package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory names one dated JSON log file
type LogCategory string

const (
	CategoryAccess LogCategory = "access" // HTTP requests
	CategoryRelay  LogCategory = "relay"  // Run lifecycle events
	CategoryError  LogCategory = "error"  // Application errors
)

// Categories lists every category served by the log API
var Categories = []LogCategory{CategoryAccess, CategoryRelay, CategoryError}

// ValidCategory reports whether c is a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger writes structured events to per-category files and keeps
// a general logger for operator output.
// Raw downloader output does not go through here; see the transcript writer.
type MultiLogger struct {
	loggers map[LogCategory]*zap.Logger
	general *zap.Logger
	files   []*os.File
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string
	LogsDir string
	General *zap.Logger // console logger; nil means no console output
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	general := config.General
	if general == nil {
		general = zap.NewNop()
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		general: general,
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	for _, category := range Categories {
		categoryLevel := level
		if category == CategoryError {
			categoryLevel = zapcore.ErrorLevel
		}
		l, err := ml.createStructuredLogger(category, categoryLevel)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = l
	}

	return ml, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	logPath := CategoryLogPath(ml.config.LogsDir, category, time.Now())
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core).With(zap.String("category", string(category))), nil
}

// CategoryLogPath returns the dated log file path of a category
func CategoryLogPath(logsDir string, category LogCategory, date time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date.Format("20060102")))
}

// LogsDir returns the logs directory path
func (ml *MultiLogger) LogsDir() string {
	return ml.config.LogsDir
}

// Get returns the structured logger for a category
func (ml *MultiLogger) Get(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if l, ok := ml.loggers[category]; ok {
		return l
	}
	return ml.loggers[CategoryError]
}

// General returns the console logger
func (ml *MultiLogger) General() *zap.Logger {
	return ml.general
}

// Access returns the HTTP access logger
func (ml *MultiLogger) Access() *zap.Logger {
	return ml.Get(CategoryAccess)
}

// LogRelayEvent records a run lifecycle event in the relay log and the console
func (ml *MultiLogger) LogRelayEvent(event string, fields ...zap.Field) {
	ml.Get(CategoryRelay).Info(event, fields...)
	ml.general.Info(event, fields...)
}

// LogError records an error in the error log and the console
func (ml *MultiLogger) LogError(msg string, fields ...zap.Field) {
	ml.Get(CategoryError).Error(msg, fields...)
	ml.general.Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, l := range ml.loggers {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, l := range ml.loggers {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
