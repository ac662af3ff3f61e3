package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents the severity level of a log message.
type Level int

// Log levels.
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Field is one structured key/value attached to a log message.
type Field struct {
	Key   string
	Value any
}

// Str builds a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 builds an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Err builds the conventional "error" field.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Any builds a field holding an arbitrary value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger is the leveled, structured logging interface used across tracklog.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that attaches fields to every message.
	With(fields ...Field) Logger
}

// Option configures a logger built by NewLogger.
type Option func(*settings)

type settings struct {
	level  Level
	json   bool
	writer io.Writer
}

// WithLevel sets the minimum level emitted.
func WithLevel(level Level) Option {
	return func(s *settings) { s.level = level }
}

// WithJSON switches output from text lines to JSON objects.
func WithJSON() Option {
	return func(s *settings) { s.json = true }
}

// WithOutput directs output to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.writer = w }
}

type slogLogger struct {
	sl *slog.Logger
}

// NewLogger builds a Logger writing to stderr in text format at InfoLevel
// unless configured otherwise.
func NewLogger(opts ...Option) Logger {
	s := settings{level: InfoLevel, writer: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	ho := &slog.HandlerOptions{Level: s.level.slog()}
	var h slog.Handler
	if s.json {
		h = slog.NewJSONHandler(s.writer, ho)
	} else {
		h = slog.NewTextHandler(s.writer, ho)
	}
	return &slogLogger{sl: slog.New(h)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.sl.Debug(msg, attrs(fields)...) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.sl.Info(msg, attrs(fields)...) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.sl.Warn(msg, attrs(fields)...) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.sl.Error(msg, attrs(fields)...) }

func (l *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{sl: l.sl.With(attrs(fields)...)}
}

type nopLogger struct{}

// NewNopLogger returns a Logger that drops everything. Library code uses it
// when the caller supplies no logger.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) With(...Field) Logger   { return nopLogger{} }
