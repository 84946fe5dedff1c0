// Package log provides structured, level-gated logging for the core
// pipeline and its collaborators (cache, crawler, trainer, reporter).
//
// Each entry is written as a single line with fixed-width columns:
//
//	2006-01-02 15:04:05.000 | MODULE       | LEVEL | message
//
// Levels (lowest to highest): debug, info, warn, error. Entries below
// the configured minimum level are silently dropped.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"
)

// Level represents a log severity.
type Level int

// Log severity constants, ordered lowest to highest.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes structured log lines for a single module.
type Logger struct {
	module string
	level  Level
	out    *stdlog.Logger
}

// New creates a Logger for the given module, gated at the given level.
func New(module string, level Level) *Logger {
	return &Logger{
		module: strings.ToUpper(module),
		level:  level,
		out:    stdlog.New(os.Stderr, "", 0),
	}
}

// ParseLevel converts a string to a Level, defaulting to LevelInfo.
// Unrecognized strings (including the empty string) default to info,
// matching the LOGJUICER_LOG environment variable's documented default.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// FromEnv builds a Logger for module, reading LOGJUICER_LOG for the level.
func FromEnv(module string) *Logger {
	return New(module, ParseLevel(os.Getenv("LOGJUICER_LOG")))
}

// SetLevel changes the minimum log level at runtime.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string) { l.write(LevelDebug, "DEBUG", msg) }

// Info logs at INFO level.
func (l *Logger) Info(msg string) { l.write(LevelInfo, "INFO ", msg) }

// Warn logs at WARN level.
func (l *Logger) Warn(msg string) { l.write(LevelWarn, "WARN ", msg) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string) { l.write(LevelError, "ERROR", msg) }

// Debugf logs a formatted message at DEBUG level.
func (l *Logger) Debugf(format string, args ...any) { l.Debug(fmt.Sprintf(format, args...)) }

// Infof logs a formatted message at INFO level.
func (l *Logger) Infof(format string, args ...any) { l.Info(fmt.Sprintf(format, args...)) }

// Warnf logs a formatted message at WARN level.
func (l *Logger) Warnf(format string, args ...any) { l.Warn(fmt.Sprintf(format, args...)) }

// Errorf logs a formatted message at ERROR level.
func (l *Logger) Errorf(format string, args ...any) { l.Error(fmt.Sprintf(format, args...)) }

func (l *Logger) write(level Level, label, msg string) {
	if level < l.level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.out.Printf("%s | %-10s | %s | %s", ts, l.module, label, msg)
}
