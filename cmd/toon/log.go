package main

import (
	"io"
	"log/slog"
	"os"
)

// newLogger returns the JSON logger used by serve. DEBUG in the environment
// lowers the level to debug.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
