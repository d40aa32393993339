package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a text logger writing to stderr at the given level.
func NewLogger(level slog.Leveler) *slog.Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo is NewLogger with an explicit writer.
func NewLoggerTo(w io.Writer, level slog.Leveler) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
