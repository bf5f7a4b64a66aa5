// Package logging defines the structured-logging interface used across the
// client. Implementations wrap log/slog or zap.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "session restored", "user", u.Username)
type Logger interface {
	// Debug logs diagnostic detail, such as individual API exchanges.
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

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// New builds a Logger writing to w. Unknown levels fall back to info and
// unknown formats to text. Values under credential keys such as "password"
// or "token" are written as Redacted.
func New(level, format string, w io.Writer) Logger {
	if strings.EqualFold(format, FormatZap) {
		return NewZapLogger(level, w)
	}
	return newSlogHandlerLogger(level, format, w)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
