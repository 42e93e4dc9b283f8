// Package logger wraps logrus with the level/format conventions the rest
// of the service expects, and a request-scoped helper for attaching a
// trace ID to every log line emitted while handling one HTTP request.
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps *logrus.Logger so callers get the familiar Info/Warn/Error
// API without importing logrus directly.
type Logger struct {
	*logrus.Logger
}

// Config controls level and output format.
type Config struct {
	Level  string
	Format string
}

// New builds a Logger from Config, defaulting to info/text on bad input.
func New(cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	l.SetOutput(os.Stdout)

	return &Logger{Logger: l}
}

// NewDefault returns an info-level, text-format logger for use before
// configuration has been loaded (e.g. while parsing flags).
func NewDefault() *Logger {
	return New(Config{Level: "info", Format: "text"})
}

type traceIDKey struct{}

// WithTraceID attaches a trace ID to ctx for later retrieval by WithContext.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// WithContext returns a log entry annotated with the request's trace ID,
// if any, so every log line for one request can be correlated.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	if id := TraceIDFromContext(ctx); id != "" {
		return l.WithField("trace_id", id)
	}
	return logrus.NewEntry(l.Logger)
}
