// Package ump defines Universal MIDI Packet (UMP) types and the SysEx7
// fragmentation/reassembly state machine.
//
// This package handles:
//   - UMP packet representation (1-4 32-bit words per message type)
//   - SysEx7 reassembly: start/continue/end/complete packets into a
//     0xF0...0xF7 framed byte stream
//   - SysEx7 fragmentation: a byte stream into packets carrying at most
//     6 payload bytes each
//   - MIDI 2.0 channel voice note on/off builders
//
// # SysEx7 Packet Layout
//
// A SysEx7 message occupies two 32-bit words. Treating word0:word1 as an
// 8-byte big-endian value:
//
//	┌──────┬───────┬────────┬───────────┬──────────────────┐
//	│ 0x3  │ group │ status │ byteCount │ payload (0..6 B) │
//	│ 4bit │ 4bit  │ 4bit   │ 4bit      │ byte index 2..7  │
//	└──────┴───────┴────────┴───────────┴──────────────────┘
//
// # Ordering
//
// Fragment packets of one SysEx message must be fed to the reassembler in
// the order the fragmenter produced them. There is no out-of-order
// buffering; reordered input corrupts the decoded stream.
package ump
