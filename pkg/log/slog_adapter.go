package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("port_id", event.PortID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.LocalMUID != 0 {
		attrs = append(attrs, slog.String("local_muid", fmt.Sprintf("%#08x", event.LocalMUID)))
	}
	if event.RemoteMUID != 0 {
		attrs = append(attrs, slog.String("remote_muid", fmt.Sprintf("%#08x", event.RemoteMUID)))
	}

	// Add type-specific attributes
	switch {
	case event.Packet != nil:
		attrs = append(attrs,
			slog.Int("words", len(event.Packet.Words)),
			slog.Uint64("group", uint64(event.Group)),
		)
		if len(event.Packet.Words) > 0 {
			attrs = append(attrs, slog.String("word0", fmt.Sprintf("%#08x", event.Packet.Words[0])))
		}
	case event.SysEx != nil:
		attrs = append(attrs,
			slog.Int("sysex_size", event.SysEx.Size),
			slog.Bool("truncated", event.SysEx.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("sub_id", fmt.Sprintf("%#02x", event.Message.SubID)),
			slog.String("src_muid", fmt.Sprintf("%#08x", event.Message.SourceMUID)),
			slog.String("dst_muid", fmt.Sprintf("%#08x", event.Message.DestinationMUID)),
		)
		if event.Message.RequestID != nil {
			attrs = append(attrs, slog.Uint64("request_id", uint64(*event.Message.RequestID)))
		}
		if event.Message.Resource != "" {
			attrs = append(attrs, slog.String("resource", event.Message.Resource))
		}
		if event.Message.BodySize != nil {
			attrs = append(attrs, slog.Int("body_size", *event.Message.BodySize))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
