// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Init initializes the global logger. The level string takes
// precedence over CHATTERM_LOG_LEVEL; CHATTERM_LOG_SINK=file:<path>
// redirects output to a file. Logs go to stderr by default so the
// terminal UI keeps stdout to itself.
func Init(level string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("CHATTERM_LOG_LEVEL")))
	}

	var slvl slog.Level
	switch lvl {
	case "debug":
		slvl = slog.LevelDebug
	case "warn", "warning":
		slvl = slog.LevelWarn
	case "error":
		slvl = slog.LevelError
	default:
		slvl = slog.LevelInfo
	}

	sink := os.Getenv("CHATTERM_LOG_SINK")
	if path, ok := strings.CutPrefix(sink, "file:"); ok {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slvl}))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
	}

	Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slvl}))
}
