// Package console provides a slog handler which forwards formatted records to a
// line sink, typically the browser console.
package console

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Emitter receives one formatted log line together with its level.
type Emitter func(level slog.Level, line string)

// Handler formats records as logfmt lines and hands them to an Emitter.
type Handler struct {
	mu   *sync.Mutex
	buf  *bytes.Buffer
	text slog.Handler
	emit Emitter
}

// NewHandler returns a handler emitting records at or above level.
func NewHandler(emit Emitter, level slog.Leveler) *Handler {
	buf := new(bytes.Buffer)
	return &Handler{
		mu:   new(sync.Mutex),
		buf:  buf,
		text: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}),
		emit: emit,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.text.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.text.Handle(ctx, r); err != nil {
		return err
	}
	h.emit(r.Level, strings.TrimSuffix(h.buf.String(), "\n"))
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{mu: h.mu, buf: h.buf, text: h.text.WithAttrs(attrs), emit: h.emit}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{mu: h.mu, buf: h.buf, text: h.text.WithGroup(name), emit: h.emit}
}

// Method returns the console method matching a log level.
func Method(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "log"
	default:
		return "debug"
	}
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
