// Package logging provides centralized logging functionality for the application.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug for detailed troubleshooting information.
	LevelDebug LogLevel = "debug"
	// LevelInfo for general operational information.
	LevelInfo LogLevel = "info"
	// LevelWarn for potentially harmful situations.
	LevelWarn LogLevel = "warn"
	// LevelError for error events that might still allow the application to continue.
	LevelError LogLevel = "error"
)

var (
	// defaultLogger is the default logger instance.
	defaultLogger *slog.Logger

	// sentryEnabled is set once EnableSentry succeeds.
	sentryEnabled bool
)

// init initializes the default logger.
func init() {
	// Get log level from environment variable, default to "info"
	logLevelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = string(LevelInfo)
	}

	// Logs go to stderr so command output on stdout stays machine readable.
	SetupLogger(os.Stderr, LogLevel(logLevelStr))
}

// SetupLogger configures the logger with the specified output and level.
func SetupLogger(w io.Writer, level LogLevel) {
	var logLevel slog.Level
	switch level {
	case LevelDebug:
		logLevel = slog.LevelDebug
	case LevelInfo:
		logLevel = slog.LevelInfo
	case LevelWarn:
		logLevel = slog.LevelWarn
	case LevelError:
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := &sentryHandler{Handler: slog.NewTextHandler(w, opts)}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// WithRunID attaches a run identifier to every subsequent log record.
func WithRunID(id string) {
	defaultLogger = defaultLogger.With("run_id", id)
	slog.SetDefault(defaultLogger)
}

// EnableSentry forwards error records to Sentry. An empty DSN is a no-op.
func EnableSentry(dsn, release string) error {
	if dsn == "" {
		return nil
	}
	return initSentry(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
}

func initSentry(opts sentry.ClientOptions) error {
	if err := sentry.Init(opts); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	sentryEnabled = true
	return nil
}

// Flush flushes any buffered events to Sentry. Call before exiting.
func Flush(timeout time.Duration) {
	if sentryEnabled {
		sentry.Flush(timeout)
	}
}

// Debug logs a message at debug level.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs a message at info level.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a message at warn level.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs a message at error level.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// GetLogger returns the default logger.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// MaskSensitive masks sensitive data for logging.
func MaskSensitive(value string) string {
	if value == "" {
		return "<not set>"
	}
	if len(value) <= 4 {
		return "<set>"
	}
	return value[:4] + "..." + strings.Repeat("*", 3)
}

// sentryHandler wraps an slog.Handler and sends error records to Sentry.
type sentryHandler struct {
	slog.Handler
	attrs []slog.Attr
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}

	if sentryEnabled && r.Level >= slog.LevelError {
		h.sendToSentry(r)
	}
	return nil
}

func (h *sentryHandler) sendToSentry(r slog.Record) {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = r.Message
	event.Timestamp = r.Time

	for _, a := range h.attrs {
		event.Extra[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		event.Extra[a.Key] = a.Value.String()
		return true
	})

	sentry.CaptureEvent(event)
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &sentryHandler{Handler: h.Handler.WithAttrs(attrs), attrs: merged}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{Handler: h.Handler.WithGroup(name), attrs: h.attrs}
}
