// Package observability provides structured logging, prometheus metrics,
// and health checks for the directory service.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogLevel is the minimum severity a logger emits. It maps directly onto
// slog's levels.
type LogLevel slog.Level

const (
	DebugLevel = LogLevel(slog.LevelDebug)
	InfoLevel  = LogLevel(slog.LevelInfo)
	WarnLevel  = LogLevel(slog.LevelWarn)
	ErrorLevel = LogLevel(slog.LevelError)
)

func (l LogLevel) String() string {
	return slog.Level(l).String()
}

// Logger emits JSON log lines via slog. Context fields accumulate through
// the With methods; each returns a derived logger and leaves the receiver
// untouched, so a request-scoped logger can branch freely.
type Logger struct {
	inner *slog.Logger
}

// NewLogger builds a logger writing to output, stdout when nil. Messages
// below level are dropped by the handler.
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	return &Logger{inner: slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: slog.Level(level),
	}))}
}

// WithField returns a derived logger carrying one extra field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{inner: l.inner.With(key, value)}
}

// WithFields returns a derived logger carrying every given field.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, 2*len(fields))
	for key, value := range fields {
		args = append(args, key, value)
	}
	return &Logger{inner: l.inner.With(args...)}
}

// WithError returns a derived logger carrying the error under the "error"
// key. A nil error adds nothing.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(msg string) { l.inner.Debug(msg) }
func (l *Logger) Info(msg string)  { l.inner.Info(msg) }
func (l *Logger) Warn(msg string)  { l.inner.Warn(msg) }
func (l *Logger) Error(msg string) { l.inner.Error(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.inner.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.inner.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.inner.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.inner.Error(fmt.Sprintf(format, args...)) }
