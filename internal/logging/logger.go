package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "OPENMOTICS_LOG_LEVEL"

// maxPayloadLog bounds how much of a response body ends up in a log line.
const maxPayloadLog = 512

// Initialize creates a new logger with the specified level.
// If level is empty, it checks OPENMOTICS_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		SetLogger(zap.NewNop())
		return nil
	}

	zapLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetLogger(built)

	return nil
}

// InitializeFromEnv initializes the logger from the OPENMOTICS_LOG_LEVEL
// environment variable. CLI commands stay silent unless it is set.
func InitializeFromEnv() error {
	return Initialize("")
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", level)
	}
}

// SetLogger replaces the global logger. Tests use it to install an observer.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		// Silent until someone initializes logging
		return zap.NewNop()
	}
	return l
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogRequest logs an outbound API request attempt.
func LogRequest(l *zap.Logger, requestID, method, url string, attempt int) {
	l.Debug("API request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("attempt", attempt),
	)
}

// LogResponse logs the outcome of an API request attempt.
func LogResponse(l *zap.Logger, requestID string, statusCode int, elapsed time.Duration, body []byte) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
		zap.Int("length", len(body)),
	}
	if l.Core().Enabled(zapcore.DebugLevel) && statusCode >= 400 {
		fields = append(fields, zap.String("body", truncate(body)))
	}
	l.Debug("API response", fields...)
}

// LogRetry logs a transient failure that is about to be retried.
func LogRetry(l *zap.Logger, requestID string, err error, wait time.Duration) {
	l.Warn("Retrying API request",
		zap.String("request_id", requestID),
		zap.Duration("wait", wait),
		zap.Error(err),
	)
}

// LogEvent logs a live event received from the events stream.
func LogEvent(l *zap.Logger, eventType string, id int, installationID int) {
	l.Debug("Event received",
		zap.String("type", eventType),
		zap.Int("id", id),
		zap.Int("installation_id", installationID),
	)
}

func truncate(data []byte) string {
	if len(data) > maxPayloadLog {
		return string(data[:maxPayloadLog]) + "..."
	}
	return string(data)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = GetLogger().Sync()
}
