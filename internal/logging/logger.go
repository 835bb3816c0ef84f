// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zap implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs a diagnostic message, normally disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported values for the log_format setting.
const (
	FormatSlog = "slog"
	FormatText = "text"
	FormatZap  = "zap"
)

// New builds a Logger writing to out in the requested format: "slog" emits
// JSON through log/slog, "text" emits slog's logfmt-like text and "zap" emits
// zap's production JSON.
func New(format string, out io.Writer, debug bool) (Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	switch format {
	case "", FormatSlog:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))), nil
	case FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))), nil
	case FormatZap:
		return newZapJSON(out, debug), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
