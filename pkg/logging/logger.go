package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger so components share one structured JSON handler.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger on stdout at the given level.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a JSON logger that writes to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewWithWriter("error", io.Discard)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		l = Default()
	}
	return &Logger{Logger: l.Logger.With("component", name)}
}
