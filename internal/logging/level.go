package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// ParseLevel converts a level name (debug, info, warn, error; any case) to
// a slog.Level. Unknown names return (DefaultLevel, false).
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return DefaultLevel, false
	}
}

// ParseLevelOrDefault is ParseLevel without the ok flag.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}
