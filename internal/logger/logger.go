// Package logger provides the structured slog logger used across testerpub.
// All logs are written in JSON format.
//
// Log files are organized as:
//
//	<logDir>/system.log    application-level events, rotated by size
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where the system logger writes and how the file is rotated.
type Options struct {
	Level slog.Level
	// Stderr mirrors every record to standard error in addition to the file.
	Stderr bool
	// MaxSizeMB is the size at which system.log is rotated. Zero means 50.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewSystemLogger creates a JSON slog.Logger that writes to <logDir>/system.log.
// The directory is created if it does not exist. The returned closer flushes
// and closes the underlying file.
func NewSystemLogger(logDir string, opts Options) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "system.log"),
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = rotator
	if opts.Stderr {
		w = io.MultiWriter(rotator, os.Stderr)
	}
	return New(w, opts.Level), rotator, nil
}

// New creates a JSON slog.Logger over w that renders the syslog level names.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	})
	return slog.New(handler)
}

// replaceLevel renders custom levels (notice, crit, ...) by name instead of
// slog's default "INFO+2" form.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok {
		a.Value = slog.StringValue(LevelName(lvl))
	}
	return a
}

// Tags returns the slog attribute used to attach classification tags to a record.
func Tags(tags ...string) slog.Attr {
	if tags == nil {
		tags = []string{}
	}
	return slog.Any("tags", tags)
}
