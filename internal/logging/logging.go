// Package logging installs the process-wide slog handler.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/phsym/console-slog"
)

// Preinit installs a debug console handler so configuration errors are
// readable before Setup runs.
func Preinit(w io.Writer) {
	slog.SetDefault(slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

// Setup installs the default logger. format is "console" for
// human-readable output or "json" for log aggregation.
func Setup(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = console.NewHandler(w, &console.HandlerOptions{
			AddSource: lvl == slog.LevelDebug,
			Level:     lvl,
		})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug/info/warn/error onto slog levels; anything else is info.
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
