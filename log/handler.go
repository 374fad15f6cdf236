package log

import (
	"context"
	"io"
	"log/slog"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, r slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, level slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(name string) slog.Handler {
	panic("not implemented")
}

func (h *discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// NewTerminalHandlerWithLevel returns a text handler writing records at or above lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceLevel,
	})
}

// JSONHandlerWithLevel returns a handler which prints records in JSON format that are at or above lvl.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceLevel,
	})
}

// replaceLevel prints the custom trace/crit levels by name instead of DEBUG-4 / ERROR+4.
func replaceLevel(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if lvl, ok := attr.Value.Any().(slog.Level); ok {
		attr.Value = slog.StringValue(LevelString(lvl))
	}
	return attr
}
