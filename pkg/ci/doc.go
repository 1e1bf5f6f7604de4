// Package ci defines the MIDI-CI message types and their SysEx wire codec.
//
// MIDI-CI messages travel inside Universal Non-Real-Time System Exclusive
// payloads. Every message starts with a common 13-byte header:
//
//	┌──────┬──────────┬──────┬─────────┬───────────┬────────────┬─────────────────┐
//	│ 0x7E │ deviceID │ 0x0D │ subID#2 │ CI version│ source MUID│ destination MUID│
//	│ 1B   │ 1B       │ 1B   │ 1B      │ 1B        │ 4B         │ 4B              │
//	└──────┴──────────┴──────┴─────────┴───────────┴────────────┴─────────────────┘
//
// # Seven-Bit Bytes
//
// SysEx payload bytes must stay below 0x80. Multi-byte numeric fields are
// transmitted least-significant byte first with every byte 7-bit clean;
// length fields are 14-bit quantities packed 7 bits per byte. Encoders
// reject values that would produce a byte with the high bit set.
//
// # Message Types
//
// Sub-ID#2 values handled by this package:
//   - 0x70/0x71: Discovery Inquiry / Reply
//   - 0x72/0x73: Endpoint Inquiry / Reply
//   - 0x7E:      Invalidate MUID
//   - 0x7D/0x7F: ACK / NAK
//   - 0x20/0x21: Profile Inquiry / Reply
//   - 0x30/0x31: Property Exchange Capability Inquiry / Reply
//   - 0x34/0x35: Get Property Data / Reply
//
// Unknown sub-IDs decode to ErrUnknownSubID; callers log and ignore them.
package ci
