// Package transport defines the boundary to the platform MIDI backend.
//
// The protocol core never touches ports directly: it sends and receives
// ump.Packet values through the Transport interface and observes port
// open/close changes through a state callback. Everything backend-specific
// (port enumeration, virtual ports, byte-stream bridging) lives behind this
// boundary.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      MIDI-CI Messages          │
//	├────────────────────────────────┤
//	│   SysEx7 Fragmentation (UMP)   │
//	├────────────────────────────────┤
//	│      UMP Packets (32-bit)      │
//	├────────────────────────────────┤
//	│   Transport (this boundary)    │
//	└────────────────────────────────┘
//
// Two implementations ship with the module: Loopback, an in-memory pair for
// tests and the end-to-end scenario, and rtmidi.Port (subpackage), which
// bridges UMP SysEx7 to MIDI 1.0 byte streams on real ports.
//
// # Delivery contract
//
// Inbound packets are delivered one at a time, in arrival order, on the
// backend's receive goroutine. SysEx7 fragments of one logical message are
// never interleaved with each other; reordering is not detected downstream.
package transport
