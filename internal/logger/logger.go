// Package logger provides a structured, context-aware logger used by every module.
package logger

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Level controls the minimum severity that gets emitted.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerInterface is the logging contract consumed by application and infra code.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

// Logger is the logrus-backed implementation of LoggerInterface.
type Logger struct {
	entry *logrus.Entry
}

// New creates a Logger writing to w at the given level. The service name is
// attached to every record; fields adds optional static fields (nil is fine).
func New(w io.Writer, level Level, service string, fields map[string]any) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(toLogrusLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	entry := l.WithField("service", service)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}

	return &Logger{entry: entry}
}

// NewJSON is New with a JSON formatter, for log shippers.
func NewJSON(w io.Writer, level Level, service string, fields map[string]any) *Logger {
	log := New(w, level, service, fields)
	log.entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	return log
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Debug logs at debug level with alternating key/value args.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx, args).Debug(msg)
}

// Info logs at info level with alternating key/value args.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx, args).Info(msg)
}

// Warn logs at warn level with alternating key/value args.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx, args).Warn(msg)
}

// Error logs at error level with alternating key/value args.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx, args).Error(msg)
}

// withContext folds key/value args and the active trace ID into an entry.
func (l *Logger) withContext(ctx context.Context, args []any) *logrus.Entry {
	entry := l.entry

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		entry = entry.WithField("trace_id", sc.TraceID().String())
	}

	if len(args) == 0 {
		return entry
	}

	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return entry.WithFields(fields)
}
