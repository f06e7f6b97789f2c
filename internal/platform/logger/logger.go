package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger shared across handlers and
// middleware.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
