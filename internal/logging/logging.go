package logging

import (
	"log/slog"
	"os"
	"strings"
)

// EnvLevel is consulted when no level is passed to InitLogger.
const EnvLevel = "SPACEGUI_LOG_LEVEL"

// ParseLevel maps the names we accept in config to a slog level.
// Anything unknown is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return slog.LevelDebug
	case "warn", "wrn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger will make a new text logger and set it as the default.
// An empty level falls back to SPACEGUI_LOG_LEVEL, then info.
func InitLogger(level string) *slog.Logger {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)})
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
