// SPDX-License-Identifier: MIT
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// slogFatal sits above slog.LevelError so fatal records are never filtered.
const slogFatal = slog.Level(12)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return slogFatal
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

var (
	level   slog.LevelVar
	current atomic.Uint32
	logger  atomic.Pointer[slog.Logger]

	// exit is swapped in tests.
	exit = os.Exit
)

func init() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output to w. Terminals get tint's colourised
// handler, anything else the plain slog text handler.
func SetOutput(w io.Writer) {
	replace := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			if lv, ok := a.Value.Any().(slog.Level); ok && lv == slogFatal {
				return slog.String(slog.LevelKey, "FATAL")
			}
		}
		return a
	}

	var h slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		h = tint.NewHandler(w, &tint.Options{
			Level:       &level,
			TimeFormat:  time.TimeOnly,
			ReplaceAttr: replace,
		})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level, ReplaceAttr: replace})
	}
	logger.Store(slog.New(h))
}

// Logger exposes the underlying structured logger for callers that want
// attributes instead of format strings.
func Logger() *slog.Logger { return logger.Load() }

// SetLevel sets the global logging level.
func SetLevel(l LogLevel) {
	current.Store(uint32(l))
	level.Set(l.slog())
}

// GetLevel gets the current global logging level.
func GetLevel() LogLevel {
	return LogLevel(current.Load())
}

func emit(l LogLevel, msg string) {
	lg := logger.Load()
	if !lg.Enabled(context.Background(), l.slog()) {
		return
	}
	lg.Log(context.Background(), l.slog(), msg)
}

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	if GetLevel() <= LevelDebug {
		emit(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	if GetLevel() <= LevelInfo {
		emit(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	if GetLevel() <= LevelWarn {
		emit(LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	if GetLevel() <= LevelError {
		emit(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) {
	emit(LevelFatal, fmt.Sprintf(format, v...))
	exit(1)
}

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) { Debugf("%s", fmt.Sprint(v...)) }

// Info logs an info message if the level is appropriate.
func Info(v ...any) { Infof("%s", fmt.Sprint(v...)) }

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) { Warnf("%s", fmt.Sprint(v...)) }

// Error logs an error message if the level is appropriate.
func Error(v ...any) { Errorf("%s", fmt.Sprint(v...)) }
