package ump

import (
	"bytes"
	"time"

	"github.com/ump-ci/umpci-go/pkg/log"
)

// SysEx7 framing constants.
const (
	// SysEx7MaxPayload is the maximum payload bytes per SysEx7 packet.
	SysEx7MaxPayload = 6

	// SysExStartByte frames the beginning of an assembled SysEx stream.
	SysExStartByte = 0xF0

	// SysExEndByte frames the end of an assembled SysEx stream.
	SysExEndByte = 0xF7

	// MaxLogSysExDataSize is the maximum assembled payload size to include
	// in log events (4 KB). Larger streams are truncated in log events to
	// avoid excessive memory usage.
	MaxLogSysExDataSize = 4096
)

// SysEx7Status is the 4-bit status nibble of a SysEx7 packet.
type SysEx7Status uint8

const (
	// SysEx7Complete carries an entire SysEx message in one packet.
	SysEx7Complete SysEx7Status = 0x0

	// SysEx7Start begins a multi-packet SysEx message.
	SysEx7Start SysEx7Status = 0x1

	// SysEx7Continue carries middle bytes of a multi-packet message.
	SysEx7Continue SysEx7Status = 0x2

	// SysEx7End finishes a multi-packet message.
	SysEx7End SysEx7Status = 0x3
)

// String returns the status name.
func (s SysEx7Status) String() string {
	switch s {
	case SysEx7Complete:
		return "COMPLETE"
	case SysEx7Start:
		return "START"
	case SysEx7Continue:
		return "CONTINUE"
	case SysEx7End:
		return "END"
	default:
		return "RESERVED"
	}
}

// SysEx7 packet field accessors.

// SysEx7Status returns the packet's 4-bit SysEx7 status nibble. Only
// meaningful for MessageTypeSysEx7 packets.
func (p Packet) SysEx7Status() SysEx7Status {
	return SysEx7Status(p.Word0>>20) & 0x0F
}

// SysEx7ByteCount returns the packet's 4-bit payload byte count.
func (p Packet) SysEx7ByteCount() int {
	return int(p.Word0>>16) & 0x0F
}

// SysEx7Payload returns the packet's payload bytes. The payload occupies
// byte indexes 2..7 of the big-endian word0:word1 concatenation.
func (p Packet) SysEx7Payload() []byte {
	n := p.SysEx7ByteCount()
	if n > SysEx7MaxPayload {
		n = SysEx7MaxPayload
	}
	all := [SysEx7MaxPayload]byte{
		byte(p.Word0 >> 8),
		byte(p.Word0),
		byte(p.Word1 >> 24),
		byte(p.Word1 >> 16),
		byte(p.Word1 >> 8),
		byte(p.Word1),
	}
	return all[:n]
}

// Reassembler reconstructs complete SysEx byte streams from a sequence of
// UMP SysEx7 packets. One Reassembler serves one port; packets from
// multiple ports must not share a Reassembler.
//
// Not safe for concurrent use. Transport receive callbacks deliver packets
// from a single goroutine per port.
type Reassembler struct {
	buffer     bytes.Buffer
	inProgress bool
	group      uint8

	// Logging support (optional)
	logger log.Logger
	portID string
}

// NewReassembler creates a new SysEx7 reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// SetLogger configures protocol event logging for this reassembler.
// Pass nil to disable logging.
func (r *Reassembler) SetLogger(logger log.Logger, portID string) {
	r.logger = logger
	r.portID = portID
}

// InProgress reports whether a multi-packet assembly is underway.
func (r *Reassembler) InProgress() bool {
	return r.inProgress
}

// Reset discards any partial assembly.
func (r *Reassembler) Reset() {
	r.buffer.Reset()
	r.inProgress = false
}

// Feed consumes one packet and returns the assembled SysEx stream framed
// with 0xF0/0xF7 when the packet completes a message. The second return
// value reports completion.
//
// Packets that are not SysEx7 are ignored; callers route those elsewhere.
// A Continue or End packet with no assembly in progress is logged and
// dropped without touching reassembly state. A Start packet always begins
// a fresh assembly, discarding any previous partial one.
func (r *Reassembler) Feed(p Packet) ([]byte, bool) {
	if p.MessageType() != MessageTypeSysEx7 {
		return nil, false
	}

	status := p.SysEx7Status()
	if p.SysEx7ByteCount() > SysEx7MaxPayload {
		r.logError("byte count out of range", status)
		return nil, false
	}
	payload := p.SysEx7Payload()

	switch status {
	case SysEx7Complete:
		r.buffer.Reset()
		r.inProgress = false
		r.group = p.Group()
		r.buffer.WriteByte(SysExStartByte)
		r.buffer.Write(payload)
		r.buffer.WriteByte(SysExEndByte)
		return r.take(), true

	case SysEx7Start:
		r.buffer.Reset()
		r.inProgress = true
		r.group = p.Group()
		r.buffer.WriteByte(SysExStartByte)
		r.buffer.Write(payload)
		return nil, false

	case SysEx7Continue:
		if !r.inProgress {
			r.logError("continue packet without start", status)
			return nil, false
		}
		r.buffer.Write(payload)
		return nil, false

	case SysEx7End:
		if !r.inProgress {
			r.logError("end packet without start", status)
			return nil, false
		}
		r.buffer.Write(payload)
		r.buffer.WriteByte(SysExEndByte)
		r.inProgress = false
		return r.take(), true

	default:
		r.logError("reserved status", status)
		return nil, false
	}
}

// take returns a copy of the assembled stream and clears the buffer.
func (r *Reassembler) take() []byte {
	data := make([]byte, r.buffer.Len())
	copy(data, r.buffer.Bytes())
	r.buffer.Reset()

	if r.logger != nil {
		r.logger.Log(r.makeSysExEvent(data))
	}
	return data
}

// makeSysExEvent creates a log event for an assembled stream.
func (r *Reassembler) makeSysExEvent(data []byte) log.Event {
	size := len(data)
	eventData := data
	truncated := false

	if len(data) > MaxLogSysExDataSize {
		eventData = data[:MaxLogSysExDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp: time.Now(),
		PortID:    r.portID,
		Direction: log.DirectionIn,
		Layer:     log.LayerSysEx,
		Category:  log.CategoryMessage,
		Group:     r.group,
		SysEx: &log.SysExEvent{
			Size:      size,
			Data:      eventData,
			Truncated: truncated,
		},
	}
}

// logError records a dropped-packet condition without mutating state.
func (r *Reassembler) logError(msg string, status SysEx7Status) {
	if r.logger == nil {
		return
	}
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		PortID:    r.portID,
		Direction: log.DirectionIn,
		Layer:     log.LayerSysEx,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerSysEx,
			Message: msg,
			Context: "status " + status.String(),
		},
	})
}

// sysEx7Packet packs up to 6 payload bytes into one SysEx7 packet.
func sysEx7Packet(group uint8, status SysEx7Status, chunk []byte) Packet {
	var p Packet
	p.Word0 = uint32(MessageTypeSysEx7)<<28 |
		uint32(group&0x0F)<<24 |
		uint32(status&0x0F)<<20 |
		uint32(len(chunk)&0x0F)<<16
	if len(chunk) > 0 {
		p.Word0 |= uint32(chunk[0]) << 8
	}
	if len(chunk) > 1 {
		p.Word0 |= uint32(chunk[1])
	}
	for i := 2; i < len(chunk) && i < SysEx7MaxPayload; i++ {
		p.Word1 |= uint32(chunk[i]) << (8 * uint(5-i))
	}
	return p
}

// FragmentSysEx7 fragments a SysEx payload into UMP SysEx7 packets in wire
// order. The payload must exclude the 0xF0/0xF7 framing bytes; framing is
// implied by the packet statuses. A payload of at most 6 bytes yields a
// single complete packet; longer payloads yield a start packet, zero or
// more continue packets, and an end packet. Receivers depend on packets
// being sent in exactly this order.
func FragmentSysEx7(group uint8, payload []byte) []Packet {
	if len(payload) <= SysEx7MaxPayload {
		return []Packet{sysEx7Packet(group, SysEx7Complete, payload)}
	}

	n := (len(payload) + SysEx7MaxPayload - 1) / SysEx7MaxPayload
	packets := make([]Packet, 0, n)
	for i := 0; i < len(payload); i += SysEx7MaxPayload {
		end := i + SysEx7MaxPayload
		if end > len(payload) {
			end = len(payload)
		}
		var status SysEx7Status
		switch {
		case i == 0:
			status = SysEx7Start
		case end == len(payload):
			status = SysEx7End
		default:
			status = SysEx7Continue
		}
		packets = append(packets, sysEx7Packet(group, status, payload[i:end]))
	}
	return packets
}

// StripSysExFraming removes the leading 0xF0 and trailing 0xF7 bytes if
// present, returning the inner payload. Streams without framing are
// returned unchanged.
func StripSysExFraming(data []byte) []byte {
	if len(data) > 0 && data[0] == SysExStartByte {
		data = data[1:]
	}
	if len(data) > 0 && data[len(data)-1] == SysExEndByte {
		data = data[:len(data)-1]
	}
	return data
}
