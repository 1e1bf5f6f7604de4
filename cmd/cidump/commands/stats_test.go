package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ump-ci/umpci-go/pkg/log"
)

func TestStatsCountsByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "port-a", Layer: log.LayerPacket, Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Layer: log.LayerPacket, Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Layer: log.LayerSysEx, Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Layer: log.LayerCI, Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Layer: log.LayerSession, Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check layer counts
	if !strings.Contains(output, "PACKET:") {
		t.Error("expected PACKET layer in output")
	}
	if !strings.Contains(output, "SYSEX:") {
		t.Error("expected SYSEX layer in output")
	}
	if !strings.Contains(output, "CI:") {
		t.Error("expected CI layer in output")
	}
	if !strings.Contains(output, "SESSION:") {
		t.Error("expected SESSION layer in output")
	}
}

func TestStatsCountsByCategory(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryState},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryError, Error: &log.ErrorEventData{Message: "test"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check category counts
	if !strings.Contains(output, "MESSAGE:") {
		t.Error("expected MESSAGE category in output")
	}
	if !strings.Contains(output, "STATE:") {
		t.Error("expected STATE category in output")
	}
	if !strings.Contains(output, "ERROR:") {
		t.Error("expected ERROR category in output")
	}
}

func TestStatsCountsPorts(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "aaaa1111-2222", Category: log.CategoryMessage},
		{Timestamp: ts.Add(time.Second), PortID: "aaaa1111-2222", Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "bbbb3333-4444", Category: log.CategoryMessage},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check port count
	if !strings.Contains(output, "Ports: 2") {
		t.Errorf("expected 2 ports in output, got:\n%s", output)
	}

	// Check port details
	if !strings.Contains(output, "[aaaa1111] 2 events") {
		t.Errorf("expected aaaa1111 port details, got:\n%s", output)
	}
	if !strings.Contains(output, "[bbbb3333] 1 events") {
		t.Errorf("expected bbbb3333 port details, got:\n%s", output)
	}
}

func TestStatsTotalEvents(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Total Events: 3") {
		t.Errorf("expected 3 total events in output, got:\n%s", output)
	}
}

func TestStatsTimeRange(t *testing.T) {
	start := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: start, PortID: "port-a", Category: log.CategoryMessage},
		{Timestamp: end, PortID: "port-a", Category: log.CategoryMessage},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Duration:") {
		t.Error("expected Duration in output")
	}
	if !strings.Contains(output, "1h0m0s") {
		t.Errorf("expected 1h0m0s duration in output, got:\n%s", output)
	}
}

func TestStatsTracksMUIDs(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage, LocalMUID: 0x1234567},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage, LocalMUID: 0x1234567, RemoteMUID: 0x7654321},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage, LocalMUID: 0x1234567, RemoteMUID: 0x7654321},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage, LocalMUID: 0x1234567, RemoteMUID: 0x0ABCDEF},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Local MUID: 1234567") {
		t.Errorf("expected local MUID, got:\n%s", output)
	}
	// Remote MUIDs listed ascending with event counts
	if !strings.Contains(output, "0ABCDEF(1)") {
		t.Errorf("expected remote MUID 0ABCDEF, got:\n%s", output)
	}
	if !strings.Contains(output, "7654321(2)") {
		t.Errorf("expected remote MUID 7654321 with 2 events, got:\n%s", output)
	}
}

func TestStatsErrorCount(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryMessage},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryError, Error: &log.ErrorEventData{Message: "error 1"}},
		{Timestamp: ts, PortID: "port-a", Category: log.CategoryError, Error: &log.ErrorEventData{Message: "error 2"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Errors: 2") {
		t.Errorf("expected 2 errors in output, got:\n%s", output)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Total Events: 0") {
		t.Errorf("expected zero events, got:\n%s", output)
	}
	if !strings.Contains(output, "Ports: 0") {
		t.Errorf("expected zero ports, got:\n%s", output)
	}
}
