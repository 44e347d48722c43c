package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
)

// LogConfig represents logger configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
	Output string `json:"output"` // stdout, stderr, or file path
}

// LogFields represents structured log fields
type LogFields map[string]interface{}

// Logger interface for abstraction
type Logger interface {
	Debug(msg string, fields ...LogFields)
	Info(msg string, fields ...LogFields)
	Warn(msg string, fields ...LogFields)
	Error(msg string, err error, fields ...LogFields)
	Fatal(msg string, err error, fields ...LogFields)
	WithFields(fields LogFields) Logger
	WithContext(ctx context.Context) Logger
}

// AppLogger implements Logger interface using logrus
type AppLogger struct {
	entry *logrus.Entry
}

// InitLogger initializes the global logger
func InitLogger(config *LogConfig) error {
	logger = logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("Invalid log level '%s', defaulting to info", config.Level)
	}
	logger.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			ForceColors:     false,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", config.Format)
	}

	switch strings.ToLower(config.Output) {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		// Assume it's a file path
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// GetLogger returns a new AppLogger instance
func GetLogger() Logger {
	if logger == nil {
		// Fallback to standard logger
		log.Println("Warning: Logger not initialized, using fallback")
		InitLogger(&LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
	}

	return &AppLogger{
		entry: logger.WithFields(logrus.Fields{}),
	}
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...LogFields) {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Debug(msg)
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...LogFields) {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Info(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...LogFields) {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Warn(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...LogFields) {
	entry := l.entry
	if err != nil {
		entry = entry.WithError(err)
	}
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func (l *AppLogger) Fatal(msg string, err error, fields ...LogFields) {
	entry := l.entry
	if err != nil {
		entry = entry.WithError(err)
	}
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Fatal(msg)
}

// WithFields returns a logger with additional fields
func (l *AppLogger) WithFields(fields LogFields) Logger {
	return &AppLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext returns a logger with request, user and tenant fields pulled
// from the context when present.
func (l *AppLogger) WithContext(ctx context.Context) Logger {
	entry := l.entry

	if requestID := GetRequestID(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if userID := GetUserID(ctx); userID != 0 {
		entry = entry.WithField("user_id", userID)
	}
	if companyID := GetCompanyID(ctx); companyID != 0 {
		entry = entry.WithField("company_id", companyID)
	}

	return &AppLogger{entry: entry}
}

// LogRequest logs an HTTP request
func LogRequest(c *gin.Context, start time.Time) {
	logger := GetLogger().WithFields(LogFields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"query":      c.Request.URL.RawQuery,
		"ip":         c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"size":       c.Writer.Size(),
	})

	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		logger = logger.WithFields(LogFields{"request_id": requestID})
	}

	message := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)

	// Log level based on status code
	status := c.Writer.Status()
	if status >= 500 {
		logger.Error(message, nil)
	} else if status >= 400 {
		logger.Warn(message)
	} else {
		logger.Info(message)
	}
}

// Context helper functions

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUserID    ctxKey = "user_id"
	ctxKeyCompanyID ctxKey = "company_id"
)

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithUserID stores the acting user id in the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// WithCompanyID stores the tenant company id in the context.
func WithCompanyID(ctx context.Context, companyID uint) context.Context {
	return context.WithValue(ctx, ctxKeyCompanyID, companyID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if str, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return str
	}
	return ""
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(ctxKeyUserID).(uint); ok {
		return id
	}
	return 0
}

// GetCompanyID extracts the tenant company id from context
func GetCompanyID(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(ctxKeyCompanyID).(uint); ok {
		return id
	}
	return 0
}

// LogError logs an error with context
func LogError(ctx context.Context, msg string, err error, fields ...LogFields) {
	logger := GetLogger().WithContext(ctx)
	if len(fields) > 0 {
		logger = logger.WithFields(fields[0])
	}
	logger.Error(msg, err)
}

// LogInfo logs an info message with context
func LogInfo(ctx context.Context, msg string, fields ...LogFields) {
	logger := GetLogger().WithContext(ctx)
	if len(fields) > 0 {
		logger = logger.WithFields(fields[0])
	}
	logger.Info(msg)
}

// LogWarn logs a warning message with context
func LogWarn(ctx context.Context, msg string, fields ...LogFields) {
	logger := GetLogger().WithContext(ctx)
	if len(fields) > 0 {
		logger = logger.WithFields(fields[0])
	}
	logger.Warn(msg)
}

// LogHTTPCall logs external HTTP calls
func LogHTTPCall(method, url string, statusCode int, duration time.Duration, err error, fields ...LogFields) {
	logger := GetLogger()
	logFields := LogFields{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration.String(),
	}

	if len(fields) > 0 {
		for k, v := range fields[0] {
			logFields[k] = v
		}
	}

	message := fmt.Sprintf("HTTP %s %s", method, url)

	if err != nil {
		logger.WithFields(logFields).Error(message, err)
	} else if statusCode >= 400 {
		logger.WithFields(logFields).Warn(message)
	} else {
		logger.WithFields(logFields).Info(message)
	}
}
