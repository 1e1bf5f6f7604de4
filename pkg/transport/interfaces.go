package transport

import (
	"errors"

	"github.com/ump-ci/umpci-go/pkg/ump"
)

// Transport errors.
var (
	// ErrPortClosed indicates a send on a closed output direction.
	ErrPortClosed = errors.New("port closed")
)

// PacketSender accepts outbound UMP packets.
type PacketSender interface {
	// SendPacket sends one UMP packet.
	SendPacket(p ump.Packet) error
}

// Transport is a bidirectional UMP port pair against a platform MIDI
// backend. Implemented by Loopback and rtmidi.Port.
type Transport interface {
	PacketSender

	// PortID returns a stable identifier for this port pair, stamped into
	// protocol log events.
	PortID() string

	// OnPacket sets the callback invoked for each inbound packet. The
	// callback runs on the backend's receive goroutine and must not block.
	OnPacket(fn func(p ump.Packet))

	// OnStateChange sets the callback invoked whenever either direction
	// opens or closes.
	OnStateChange(fn func(inputOpen, outputOpen bool))

	// InputOpen reports whether the receive direction is open.
	InputOpen() bool

	// OutputOpen reports whether the send direction is open.
	OutputOpen() bool

	// Close shuts down both directions.
	Close() error
}

// Compile-time interface satisfaction checks.
var (
	_ Transport = (*Loopback)(nil)
)
