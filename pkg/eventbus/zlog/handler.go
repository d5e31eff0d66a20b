// Package zlog adapts rs/zerolog into a log/slog.Handler, so an
// application can pass eventbus.WithLogger(slog.New(zlog.New("eventbus")))
// and get zerolog's output formatting with the rest of the bus's ambient
// logging written through the standard slog API.
package zlog

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler implements slog.Handler on top of a zerolog.Logger.
type Handler struct {
	log   zerolog.Logger
	attrs []slog.Attr
	group string
}

// New builds a Handler for component, using the APP_ENV environment
// variable to pick between a human-readable console writer ("dev") and
// structured JSON output (everything else), matching the convention used
// elsewhere in this codebase's logging setup.
func New(component string) *Handler {
	env := strings.ToLower(os.Getenv("APP_ENV"))

	var z zerolog.Logger
	if env == "dev" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}

	return &Handler{log: z}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.log.GetLevel() <= slogLevelToZerolog(level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	ev := h.log.WithLevel(slogLevelToZerolog(record.Level))

	for _, a := range h.attrs {
		ev = addAttr(ev, h.group, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.group, a)
		return true
	})

	ev.Msg(record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group == "" {
		next.group = name
	} else {
		next.group = h.group + "." + name
	}
	return &next
}

func addAttr(ev *zerolog.Event, group string, a slog.Attr) *zerolog.Event {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	return ev.Interface(key, a.Value.Any())
}

func slogLevelToZerolog(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
