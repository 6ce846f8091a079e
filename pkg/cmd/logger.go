package cmd

import (
	"log/slog"
	"os"
)

func newLogLevel() *slog.LevelVar {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)
	return level
}

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
