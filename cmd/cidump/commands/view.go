// Package commands implements the cidump CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/log"
)

// RunView prints every event in the capture that matches the filter, in
// human-readable form.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [port:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Packet != nil:
		typeLabel = "Packet"
	case event.SysEx != nil:
		typeLabel = "SysEx"
	case event.Message != nil:
		typeLabel = ci.SubID(event.Message.SubID).String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [port:%s] %-3s %s %s\n",
		ts, shortenPortID(event.PortID), event.Direction.String(), event.Layer.String(), typeLabel)

	switch {
	case event.Packet != nil:
		formatPacketDetails(w, event.Packet)
	case event.SysEx != nil:
		formatSysExDetails(w, event.SysEx)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenPortID returns the first 8 characters of the port ID.
func shortenPortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatPacketDetails writes UMP packet details.
func formatPacketDetails(w io.Writer, pkt *log.PacketEvent) {
	fmt.Fprint(w, "  Words:")
	for _, word := range pkt.Words {
		fmt.Fprintf(w, " %08X", word)
	}
	fmt.Fprintln(w)
	if pkt.Status != 0 {
		fmt.Fprintf(w, "  Status: %d\n", pkt.Status)
	}
}

// formatSysExDetails writes assembled SysEx stream details.
func formatSysExDetails(w io.Writer, sysex *log.SysExEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", sysex.Size)
	if len(sysex.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(sysex.Data))
		if sysex.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatMessageDetails writes decoded MIDI-CI message details.
func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  Source: %s  Destination: %s\n",
		ci.MUID(msg.SourceMUID), ci.MUID(msg.DestinationMUID))
	if msg.RequestID != nil {
		fmt.Fprintf(w, "  RequestID: %d\n", *msg.RequestID)
	}
	if msg.Resource != "" {
		fmt.Fprintf(w, "  Resource: %s\n", msg.Resource)
	}
	if msg.BodySize != nil {
		fmt.Fprintf(w, "  BodySize: %d\n", *msg.BodySize)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from a command-line flag
// (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "packet":
		return log.LayerPacket, nil
	case "sysex":
		return log.LayerSysEx, nil
	case "ci":
		return log.LayerCI, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be packet, sysex, ci, or session)", s)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag
// (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}
