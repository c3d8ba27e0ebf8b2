// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options selects level ("debug", "info", "warn", "error") and format
// ("text" or "json"). Debug forces the debug level.
type Options struct {
	Level  string
	Format string
	Debug  bool
	Output io.Writer
}

// Setup builds the logger, installs it as slog's default and returns it.
func Setup(opt Options) *slog.Logger {
	lvl := ParseLevel(opt.Level)
	if opt.Debug {
		lvl = slog.LevelDebug
	}
	out := opt.Output
	if out == nil {
		out = os.Stderr
	}
	var h slog.Handler
	if strings.EqualFold(opt.Format, "json") {
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// ParseLevel maps a level name to slog; unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L returns the configured logger, setting up defaults on first use.
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup(Options{})
	}
	return defaultLogger
}
