package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Redacted replaces the value of any attribute whose key names a credential.
const Redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "token", "authorization"}

// isSensitive reports whether key names a credential, matching
// case-insensitively on substrings so "access_token" is caught too.
func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindGroup && isSensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// redactPairs returns a copy of key/value args with credential values masked.
func redactPairs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		if k, ok := out[i].(string); ok && isSensitive(k) {
			out[i+1] = Redacted
		}
	}
	return out
}

// SlogLogger adapts *slog.Logger to Logger. Records are dropped before
// formatting when the handler is not enabled for their level.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog logger as is.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// newSlogHandlerLogger builds a text or JSON slog logger at level that
// masks credential attributes.
func newSlogHandlerLogger(level, format string, w io.Writer) *SlogLogger {
	opts := &slog.HandlerOptions{Level: slogLevel(level), ReplaceAttr: redactAttr}
	if strings.EqualFold(format, FormatJSON) {
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts)))
	}
	return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts)))
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
