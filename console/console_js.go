//go:build js && wasm

package console

import (
	"log/slog"
	"syscall/js"
)

// NewLogger returns a logger writing to the browser console.
func NewLogger(level slog.Leveler) *slog.Logger {
	console := js.Global().Get("console")
	return slog.New(NewHandler(func(l slog.Level, line string) {
		console.Call(Method(l), line)
	}, level))
}
