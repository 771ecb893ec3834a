// Package logger provides structured logging for the ingestion pipeline.
//
// Messages carry a level (DEBUG, INFO, WARN, ERROR) and arbitrary structured
// fields, and are rendered as JSON or logfmt-style text through log/slog.
// Components receive a *Logger explicitly; With attaches fields that every
// subsequent entry carries, which is how adapter output is tagged with its
// source and run id.
//
// Example usage:
//
//	log := logger.New(logger.LevelInfo, os.Stderr, logger.FormatJSON)
//	log = log.With(logger.Fields{"source": "ibjjf"})
//
//	log.Warn("Skipping row with unparseable date", logger.Fields{
//	    "name":      row.Name,
//	    "date_text": row.EventIntervalDays,
//	})
//
//	log.Error("Adapter failed", nil, err)
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	slog *slog.Logger
}

// ParseLevel converts user input such as "warn" or "warning" into a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("must be one of debug, info, warn, error")
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing entries at or above level to w.
func New(level Level, w io.Writer, format Format) *Logger {
	opts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{slog: slog.New(handler)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(LevelError, io.Discard, FormatJSON)
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	if l == nil {
		return Nop().With(fields)
	}
	return &Logger{slog: l.slog.With(attrs(fields)...)}
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.slog.Enabled(context.Background(), level.slogLevel())
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if l == nil {
		return
	}
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.slog.Log(context.Background(), level.slogLevel(), message, args...)
}

// attrs converts fields into slog attributes in a stable key order.
func attrs(fields Fields) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
// Warning messages indicate potential issues that don't prevent operation.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}
