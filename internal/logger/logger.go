// Package logger builds the structured logger shared by the server and the CLI.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New creates a logger for env writing to w.
// Development gets human-readable text at debug level, everything else JSON at info.
func New(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
