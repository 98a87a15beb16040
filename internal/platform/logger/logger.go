package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. JSON output keeps log aggregation
// simple; handlers and services attach request-scoped attributes themselves.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
