package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Debug flips the level for
// local troubleshooting.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
