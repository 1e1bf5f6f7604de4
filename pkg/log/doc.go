// Package log provides structured protocol event capture for the MIDI-CI core.
//
// This package defines the Logger interface and Event types for recording
// protocol-level events at multiple layers (UMP packets, SysEx assembly,
// decoded MIDI-CI messages, session state). It is separate from operational
// logging (slog) - protocol capture provides a complete machine-readable
// event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	protoLog := log.NewSlogAdapter(slog.Default())
//
//	// For field captures: write to binary file
//	protoLog, _ := log.NewFileLogger("keyboard.cilog")
//
//	// Both: use MultiLogger
//	protoLog := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Packet: raw UMP words (PacketEvent)
//   - SysEx: assembled byte streams (SysExEvent)
//   - CI: decoded MIDI-CI messages (MessageEvent)
//   - Session: state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with .cilog extension. The cidump CLI tool
// provides viewing and filtering.
package log
