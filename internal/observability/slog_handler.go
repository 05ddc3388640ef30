package observability

import (
	"context"
	"log/slog"
)

// Handler adapts the shipper to slog so the ambient logger fans out into
// the observability sink alongside stdout.
type Handler struct {
	shipper *Shipper
	level   slog.Level
	attrs   []slog.Attr
}

// NewHandler wraps a shipper. Records below level are ignored.
func NewHandler(shipper *Shipper, level slog.Level) *Handler {
	return &Handler{shipper: shipper, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.shipper != nil && level >= h.level
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	event := Event{
		Message:   record.Message,
		Timestamp: record.Time,
		Logtype:   record.Level.String(),
		Fields:    make(map[string]any, record.NumAttrs()+len(h.attrs)),
	}
	collect := func(attr slog.Attr) bool {
		if attr.Key == "endpoint" {
			event.Endpoint = attr.Value.String()
			return true
		}
		event.Fields[attr.Key] = attr.Value.Any()
		return true
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(collect)

	h.shipper.Emit(event)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *Handler) WithGroup(string) slog.Handler {
	// Groups are flattened; the sink schema is flat.
	return h
}
