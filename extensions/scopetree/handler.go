package scopetree

import (
	"context"
	"log/slog"
)

// SilentHandler discards every record. Useful for wiring an Extension
// into a test's scope tree purely to exercise the Observer hook without
// producing log output.
type SilentHandler struct{}

// NewSilentHandler returns a SilentHandler.
func NewSilentHandler() *SilentHandler { return &SilentHandler{} }

func (h *SilentHandler) Enabled(context.Context, slog.Level) bool { return false }

func (h *SilentHandler) Handle(context.Context, slog.Record) error { return nil }

func (h *SilentHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *SilentHandler) WithGroup(string) slog.Handler { return h }
