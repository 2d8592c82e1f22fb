package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Syslog-style levels layered on top of slog's four built-ins.
const (
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelNotice  = slog.Level(2)
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
	LevelCrit    = slog.Level(10)
	LevelAlert   = slog.Level(12)
	LevelEmerg   = slog.Level(14)
)

var levelNames = map[slog.Level]string{
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelNotice:  "notice",
	LevelWarning: "warning",
	LevelError:   "error",
	LevelCrit:    "crit",
	LevelAlert:   "alert",
	LevelEmerg:   "emerg",
}

// ParseLevel converts a level name to a slog.Level. Matching is case-insensitive
// and accepts the common aliases "warn", "critical" and "emergency".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "crit", "critical":
		return LevelCrit, nil
	case "alert":
		return LevelAlert, nil
	case "emerg", "emergency":
		return LevelEmerg, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// LevelName returns the syslog name of lvl, falling back to slog's own
// rendering for levels in between.
func LevelName(lvl slog.Level) string {
	if name, ok := levelNames[lvl]; ok {
		return name
	}
	return strings.ToLower(lvl.String())
}
