package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with radar-specific context propagation.
type Logger struct {
	*logrus.Logger
	serviceName string
	version     string
}

// Config holds logging configuration.
type Config struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	Output      string `json:"output"`
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
}

// ContextKey type for context keys.
type ContextKey string

const (
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey ContextKey = "correlation_id"
	// TraceIDKey is the context key for trace ID.
	TraceIDKey ContextKey = "trace_id"
)

// NewLogger creates a new structured logger.
func NewLogger(config *Config) (*Logger, error) {
	if config == nil {
		config = &Config{
			Level:       "info",
			Format:      "json",
			Output:      "stdout",
			ServiceName: "agentic-radar",
			Version:     "unknown",
		}
	}

	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", config.Format)
	}

	switch strings.ToLower(config.Output) {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(file)
	}

	return &Logger{
		Logger:      logger,
		serviceName: config.ServiceName,
		version:     config.Version,
	}, nil
}

// WithContext creates a logger entry carrying correlation/trace IDs found
// on the context.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithFields(logrus.Fields{
		"service": l.serviceName,
		"version": l.version,
	})

	if correlationID := ctx.Value(CorrelationIDKey); correlationID != nil {
		entry = entry.WithField("correlation_id", correlationID)
	}
	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		entry = entry.WithField("trace_id", traceID)
	}

	return entry
}

// WithFields creates a logger entry with additional fields merged over
// the service/version base fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	baseFields := logrus.Fields{
		"service": l.serviceName,
		"version": l.version,
	}
	for k, v := range fields {
		baseFields[k] = v
	}
	return l.Logger.WithFields(baseFields)
}

// WithError creates a logger entry with an error field.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"error":      err.Error(),
		"error_type": fmt.Sprintf("%T", err),
	})
}

// LogScanEvent logs a scan/test lifecycle event (parse started, detectors
// resolved, report written).
func (l *Logger) LogScanEvent(ctx context.Context, event, projectName, mode string, fields logrus.Fields) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"event":        event,
		"project_name": projectName,
		"mode":         mode,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info("scan event")
}

// LogDetectorEvent logs a single detector run, including how many
// findings it produced or whether it recovered from an error.
func (l *Logger) LogDetectorEvent(ctx context.Context, detectorName string, findingCount int, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"event":    "detector_run",
		"detector": detectorName,
		"findings": findingCount,
	})
	if err != nil {
		entry.WithError(err).Warn("detector recovered from error")
		return
	}
	entry.Debug("detector run completed")
}

// LogPackEvent logs evidence-pack assembly progress.
func (l *Logger) LogPackEvent(ctx context.Context, event, packPath string, fields logrus.Fields) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"event":     event,
		"pack_path": packPath,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info("evidence pack event")
}

// NewCorrelationID generates a new correlation ID.
func NewCorrelationID() string {
	return uuid.New().String()
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// SetOutput sets the logger output.
func (l *Logger) SetOutput(output io.Writer) {
	l.Logger.SetOutput(output)
}

// Global logger instance.
var globalLogger *Logger

func init() {
	var err error
	globalLogger, err = NewLogger(nil)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize global logger: %v", err))
	}
}

// GetLogger returns the global logger instance.
func GetLogger() *Logger {
	return globalLogger
}

// SetGlobalLogger overrides the global logger instance.
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}
