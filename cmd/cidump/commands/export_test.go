package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.cilog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			PortID:    "abc12345",
			Direction: log.DirectionOut,
			Layer:     log.LayerCI,
			Category:  log.CategoryMessage,
			LocalMUID: 0x1234567,
			Message: &log.MessageEvent{
				SubID:           uint8(ci.SubIDDiscoveryInquiry),
				SourceMUID:      0x1234567,
				DestinationMUID: uint32(ci.BroadcastMUID),
			},
		},
		{
			Timestamp:  ts.Add(time.Second),
			PortID:     "abc12345",
			Direction:  log.DirectionIn,
			Layer:      log.LayerCI,
			Category:   log.CategoryMessage,
			LocalMUID:  0x1234567,
			RemoteMUID: 0x7654321,
			Message: &log.MessageEvent{
				SubID:           uint8(ci.SubIDDiscoveryReply),
				SourceMUID:      0x7654321,
				DestinationMUID: 0x1234567,
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	err := RunExport(path, "jsonl", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}

	// Parse first line
	var event1 map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event1); err != nil {
		t.Errorf("failed to parse line 1: %v", err)
	}
	if event1["PortID"] != "abc12345" {
		t.Errorf("expected PortID abc12345, got %v", event1["PortID"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	requestID := uint8(1)
	events := []log.Event{
		{
			Timestamp: ts,
			PortID:    "abc12345",
			Direction: log.DirectionOut,
			Layer:     log.LayerPacket,
			Category:  log.CategoryMessage,
			Packet: &log.PacketEvent{
				Words: []uint32{0x30162A2A},
			},
		},
		{
			Timestamp:  ts.Add(time.Second),
			PortID:     "abc12345",
			Direction:  log.DirectionOut,
			Layer:      log.LayerCI,
			Category:   log.CategoryMessage,
			LocalMUID:  0x1234567,
			RemoteMUID: 0x7654321,
			Message: &log.MessageEvent{
				SubID:           uint8(ci.SubIDGetPropertyData),
				SourceMUID:      0x1234567,
				DestinationMUID: 0x7654321,
				RequestID:       &requestID,
				Resource:        "AllCtrlList",
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	err := RunExport(path, "csv", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	// Check header
	if !strings.HasPrefix(string(data), "timestamp,port_id,direction,layer,category") {
		t.Errorf("expected CSV header, got: %s", string(data[:50]))
	}

	// Check data rows exist
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header + 2 data rows, got %d lines", len(lines))
	}

	// Packet row carries the type label
	if !strings.Contains(lines[1], "packet") {
		t.Errorf("expected packet type in row, got: %s", lines[1])
	}

	// Message row carries the sub-ID name, MUIDs and request ID
	if !strings.Contains(lines[2], "GET_PROPERTY_DATA") {
		t.Errorf("expected message type in row, got: %s", lines[2])
	}
	if !strings.Contains(lines[2], "1234567") {
		t.Errorf("expected local MUID in row, got: %s", lines[2])
	}
	if !strings.Contains(lines[2], "7654321") {
		t.Errorf("expected remote MUID in row, got: %s", lines[2])
	}
}

func TestExportWritesToStdout(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			PortID:    "abc12345",
			Direction: log.DirectionOut,
			Layer:     log.LayerPacket,
			Category:  log.CategoryMessage,
			Packet:    &log.PacketEvent{Words: []uint32{0x30162A2A}},
		},
	}

	path := createTestLogFile(t, events)

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunExport(path, "jsonl", "") // empty output means stdout

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if buf.Len() == 0 {
		t.Error("expected output to stdout")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)

	err := RunExport(path, "xml", "")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got: %v", err)
	}
}
