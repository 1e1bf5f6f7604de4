package ci

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// MUID is a 28-bit MIDI Unique Identifier. The value is carried in a
// uint32 whose four bytes each hold 7 bits, so a valid MUID never has a
// byte with the high bit set. On the wire a MUID occupies four bytes,
// least-significant byte first.
type MUID uint32

const (
	// BroadcastMUID addresses every MIDI-CI device on the transport.
	BroadcastMUID MUID = 0x7F7F7F7F

	// muidMask keeps 7 bits per byte across the 4-byte container.
	muidMask = 0x7F7F7F7F

	// reservedMUIDFloor is the start of the reserved MUID band
	// (0x7F7F7F00-0x7F7F7F7F). Generated MUIDs avoid this band; only
	// the broadcast value inside it is ever addressed.
	reservedMUIDFloor = 0x7F7F7F00

	// MUIDSize is the wire size of a MUID in bytes.
	MUIDSize = 4
)

// GenerateMUID returns a pseudo-random MUID outside the reserved band.
func GenerateMUID() MUID {
	var buf [MUIDSize]byte
	for {
		_, _ = rand.Read(buf[:])
		m := MUID(binary.LittleEndian.Uint32(buf[:]) & muidMask)
		if m == 0 || m.IsReserved() {
			continue
		}
		return m
	}
}

// Valid reports whether the value fits the 7-bit-per-byte MUID container
// and is non-zero.
func (m MUID) Valid() bool {
	return m != 0 && uint32(m)&^uint32(muidMask) == 0
}

// IsBroadcast reports whether the MUID is the broadcast address.
func (m MUID) IsBroadcast() bool {
	return m == BroadcastMUID
}

// IsReserved reports whether the MUID falls in the reserved band,
// including the broadcast address.
func (m MUID) IsReserved() bool {
	return uint32(m)&0xFFFFFF00 == reservedMUIDFloor
}

// String formats the MUID as seven hex digits (28 bits).
func (m MUID) String() string {
	return fmt.Sprintf("%07X", uint32(m))
}

// putMUID writes the MUID's four bytes, least-significant first.
func putMUID(dst []byte, m MUID) {
	binary.LittleEndian.PutUint32(dst, uint32(m)&muidMask)
}

// muidAt reads a MUID from four wire bytes.
func muidAt(data []byte) MUID {
	return MUID(binary.LittleEndian.Uint32(data) & muidMask)
}
