package ump

// MessageType is the 4-bit UMP message type carried in the top nibble of
// the first word of every packet.
type MessageType uint8

const (
	// MessageTypeUtility carries jitter-reduction and NOOP messages (1 word).
	MessageTypeUtility MessageType = 0x0

	// MessageTypeSystem carries System Real Time and System Common messages (1 word).
	MessageTypeSystem MessageType = 0x1

	// MessageTypeMIDI1 carries MIDI 1.0 channel voice messages (1 word).
	MessageTypeMIDI1 MessageType = 0x2

	// MessageTypeSysEx7 carries 7-bit System Exclusive data (2 words).
	MessageTypeSysEx7 MessageType = 0x3

	// MessageTypeMIDI2 carries MIDI 2.0 channel voice messages (2 words).
	MessageTypeMIDI2 MessageType = 0x4

	// MessageTypeData128 carries 8-bit data / mixed data set messages (4 words).
	MessageTypeData128 MessageType = 0x5
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeUtility:
		return "UTILITY"
	case MessageTypeSystem:
		return "SYSTEM"
	case MessageTypeMIDI1:
		return "MIDI1"
	case MessageTypeSysEx7:
		return "SYSEX7"
	case MessageTypeMIDI2:
		return "MIDI2"
	case MessageTypeData128:
		return "DATA128"
	default:
		return "RESERVED"
	}
}

// wordCounts maps every 4-bit message type to its packet size in words,
// reserved types included, as fixed by the UMP format.
var wordCounts = [16]int{
	1, 1, 1, 2, 2, 4, 1, 1,
	2, 2, 2, 3, 3, 4, 4, 4,
}

// WordCount returns the number of 32-bit words a packet of this type
// occupies (1-4).
func (t MessageType) WordCount() int {
	return wordCounts[t&0x0F]
}

// Packet is a single Universal MIDI Packet. A UMP message occupies one to
// four 32-bit words depending on its message type; unused trailing words
// are zero. Packets are immutable values.
type Packet struct {
	Word0 uint32
	Word1 uint32
	Word2 uint32
	Word3 uint32
}

// MessageType returns the packet's 4-bit message type.
func (p Packet) MessageType() MessageType {
	return MessageType(p.Word0 >> 28)
}

// Group returns the packet's 4-bit UMP group.
func (p Packet) Group() uint8 {
	return uint8(p.Word0>>24) & 0x0F
}

// WordCount returns the number of meaningful words in the packet.
func (p Packet) WordCount() int {
	return p.MessageType().WordCount()
}

// Words returns the packet's meaningful words as a fresh slice, sized by
// the message type. Used when stamping packets into log events.
func (p Packet) Words() []uint32 {
	all := [4]uint32{p.Word0, p.Word1, p.Word2, p.Word3}
	n := p.WordCount()
	out := make([]uint32, n)
	copy(out, all[:n])
	return out
}

// MIDI 2.0 channel voice status bytes (high nibble; low nibble is the channel).
const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
)

// NoteOn builds a MIDI 2.0 channel voice note-on packet. The 7-bit
// velocity is upscaled to the 16-bit field by byte repetition, so full
// 7-bit velocity maps to full 16-bit velocity.
func NoteOn(group, channel, note, velocity uint8) Packet {
	vel := uint32(velocity&0x7F)<<8 | uint32(velocity&0x7F)
	return Packet{
		Word0: uint32(MessageTypeMIDI2)<<28 |
			uint32(group&0x0F)<<24 |
			uint32(statusNoteOn|channel&0x0F)<<16 |
			uint32(note&0x7F)<<8,
		Word1: vel << 16,
	}
}

// NoteOff builds a MIDI 2.0 channel voice note-off packet with zero
// release velocity.
func NoteOff(group, channel, note uint8) Packet {
	return Packet{
		Word0: uint32(MessageTypeMIDI2)<<28 |
			uint32(group&0x0F)<<24 |
			uint32(statusNoteOff|channel&0x0F)<<16 |
			uint32(note&0x7F)<<8,
	}
}
