package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// PortID uniquely identifies the transport port pair (UUID).
	PortID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Group is the UMP group the event belongs to, if any.
	Group uint8 `cbor:"6,keyasint,omitempty"`

	// LocalMUID is the local MIDI-CI identifier (populated after initialize).
	LocalMUID uint32 `cbor:"7,keyasint,omitempty"`

	// RemoteMUID is the peer MIDI-CI identifier, if known.
	RemoteMUID uint32 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Packet      *PacketEvent      `cbor:"10,keyasint,omitempty"` // UMP packet layer
	SysEx       *SysExEvent       `cbor:"11,keyasint,omitempty"` // Assembled SysEx stream
	Message     *MessageEvent     `cbor:"12,keyasint,omitempty"` // Decoded MIDI-CI message
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Connection/session state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerPacket is the UMP packet layer (32-bit words).
	LayerPacket Layer = 0
	// LayerSysEx is the SysEx assembly layer (byte streams).
	LayerSysEx Layer = 1
	// LayerCI is the MIDI-CI message layer (decoded bodies).
	LayerCI Layer = 2
	// LayerSession is the device session layer.
	LayerSession Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerPacket:
		return "PACKET"
	case LayerSysEx:
		return "SYSEX"
	case LayerCI:
		return "CI"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures a single UMP packet at the packet layer.
type PacketEvent struct {
	// Words are the packet's 32-bit words (1-4 depending on message type).
	Words []uint32 `cbor:"1,keyasint"`

	// Status is the SysEx7 status nibble for SysEx7 packets.
	Status uint8 `cbor:"2,keyasint,omitempty"`
}

// SysExEvent captures an assembled SysEx byte stream.
type SysExEvent struct {
	// Size is the full payload size in bytes (including 0xF0/0xF7 framing).
	Size int `cbor:"1,keyasint"`

	// Data is the payload (may be truncated for large streams).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded MIDI-CI message at the CI layer.
type MessageEvent struct {
	// SubID is the MIDI-CI sub-ID#2 identifying the message kind.
	SubID uint8 `cbor:"1,keyasint"`

	// SourceMUID is the message's source MUID.
	SourceMUID uint32 `cbor:"2,keyasint"`

	// DestinationMUID is the message's destination MUID.
	DestinationMUID uint32 `cbor:"3,keyasint"`

	// RequestID correlates property exchange request/reply pairs.
	RequestID *uint8 `cbor:"4,keyasint,omitempty"`

	// Resource is the property resource name for property exchange messages.
	Resource string `cbor:"5,keyasint,omitempty"`

	// BodySize is the property body size in bytes, if any.
	BodySize *int `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures connection and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a transport connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 1
	// StateEntityDevice indicates a remote device state change.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
