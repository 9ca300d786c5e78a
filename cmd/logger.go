package cmd

import (
	"log/slog"
	"os"

	"github.com/ziadkadry99/barback/internal/config"
)

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
