// Package logging provides a single leveled logger: one sink instead of
// the scattered printf/fprintf/vprintf the original mixed. It wraps the
// standard library's *log.Logger, the only logging mechanism used
// in this codebase (see DESIGN.md).
package logging

import (
	"io"
	"log"
	"os"
)

// Level controls which calls actually reach the underlying writer.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is a small leveled wrapper around *log.Logger.
type Logger struct {
	level Level
	std   *log.Logger
}

// New builds a Logger writing to w with the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, std: log.New(w, "", log.LstdFlags)}
}

// Default builds a Logger writing to stderr at LevelInfo, suitable as a
// package-level fallback before a CLI has parsed its verbosity flag.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

func (l *Logger) log(level Level, prefix, format string, args []interface{}) {
	if level > l.level {
		return
	}
	l.std.Printf(prefix+" "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, "ERROR", format, args) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, "WARN", format, args) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, "INFO", format, args) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, "DEBUG", format, args) }

// SetLevel adjusts the minimum level after construction.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}
