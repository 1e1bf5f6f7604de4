package ump

import (
	"bytes"
	"sync"
	"testing"

	"github.com/ump-ci/umpci-go/pkg/log"
)

// frame wraps a payload with the SysEx start/end bytes.
func frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, SysExStartByte)
	out = append(out, payload...)
	out = append(out, SysExEndByte)
	return out
}

// testPayload builds a deterministic 7-bit payload of length n.
func testPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 0x80)
	}
	return p
}

func TestFragmentSysEx7SinglePacket(t *testing.T) {
	for n := 0; n <= SysEx7MaxPayload; n++ {
		payload := testPayload(n)
		packets := FragmentSysEx7(3, payload)

		if len(packets) != 1 {
			t.Fatalf("len %d: got %d packets, want 1", n, len(packets))
		}
		p := packets[0]
		if p.MessageType() != MessageTypeSysEx7 {
			t.Errorf("len %d: message type = %v, want SYSEX7", n, p.MessageType())
		}
		if p.Group() != 3 {
			t.Errorf("len %d: group = %d, want 3", n, p.Group())
		}
		if p.SysEx7Status() != SysEx7Complete {
			t.Errorf("len %d: status = %v, want COMPLETE", n, p.SysEx7Status())
		}
		if p.SysEx7ByteCount() != n {
			t.Errorf("len %d: byte count = %d, want %d", n, p.SysEx7ByteCount(), n)
		}
		if !bytes.Equal(p.SysEx7Payload(), payload) {
			t.Errorf("len %d: payload = %v, want %v", n, p.SysEx7Payload(), payload)
		}
	}
}

func TestFragmentSysEx7MultiPacket(t *testing.T) {
	tests := []struct {
		name         string
		payloadLen   int
		wantStatuses []SysEx7Status
	}{
		{
			name:         "seven bytes",
			payloadLen:   7,
			wantStatuses: []SysEx7Status{SysEx7Start, SysEx7End},
		},
		{
			name:         "two full packets",
			payloadLen:   12,
			wantStatuses: []SysEx7Status{SysEx7Start, SysEx7End},
		},
		{
			name:         "start continue end",
			payloadLen:   13,
			wantStatuses: []SysEx7Status{SysEx7Start, SysEx7Continue, SysEx7End},
		},
		{
			name:         "long message",
			payloadLen:   32,
			wantStatuses: []SysEx7Status{SysEx7Start, SysEx7Continue, SysEx7Continue, SysEx7Continue, SysEx7Continue, SysEx7End},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets := FragmentSysEx7(0, testPayload(tt.payloadLen))

			if len(packets) != len(tt.wantStatuses) {
				t.Fatalf("got %d packets, want %d", len(packets), len(tt.wantStatuses))
			}
			total := 0
			for i, p := range packets {
				if p.SysEx7Status() != tt.wantStatuses[i] {
					t.Errorf("packet %d: status = %v, want %v", i, p.SysEx7Status(), tt.wantStatuses[i])
				}
				total += p.SysEx7ByteCount()
			}
			if total != tt.payloadLen {
				t.Errorf("total payload bytes = %d, want %d", total, tt.payloadLen)
			}
		})
	}
}

func TestReassemblyRoundTrip(t *testing.T) {
	r := NewReassembler()

	for n := 0; n <= 64; n++ {
		payload := testPayload(n)
		packets := FragmentSysEx7(0, payload)

		var got []byte
		var done bool
		for i, p := range packets {
			got, done = r.Feed(p)
			if i < len(packets)-1 && done {
				t.Fatalf("len %d: assembly completed early at packet %d", n, i)
			}
		}
		if !done {
			t.Fatalf("len %d: assembly never completed", n)
		}
		if !bytes.Equal(got, frame(payload)) {
			t.Errorf("len %d: got %v, want %v", n, got, frame(payload))
		}
		if r.InProgress() {
			t.Errorf("len %d: InProgress after completion", n)
		}
	}
}

func TestReassemblerCompleteEmptyPayload(t *testing.T) {
	r := NewReassembler()

	got, done := r.Feed(sysEx7Packet(0, SysEx7Complete, nil))
	if !done {
		t.Fatal("complete packet did not finish assembly")
	}
	if !bytes.Equal(got, []byte{SysExStartByte, SysExEndByte}) {
		t.Errorf("got %v, want [F0 F7]", got)
	}
}

func TestReassemblerContinueWithoutStart(t *testing.T) {
	r := NewReassembler()

	got, done := r.Feed(sysEx7Packet(0, SysEx7Continue, []byte{1, 2, 3}))
	if done || got != nil {
		t.Errorf("continue without start returned (%v, %v), want (nil, false)", got, done)
	}
	if r.InProgress() {
		t.Error("continue without start set InProgress")
	}

	// State is untouched: a following complete message assembles cleanly.
	got, done = r.Feed(sysEx7Packet(0, SysEx7Complete, []byte{9}))
	if !done || !bytes.Equal(got, frame([]byte{9})) {
		t.Errorf("follow-up assembly corrupted: got %v", got)
	}
}

func TestReassemblerEndWithoutStart(t *testing.T) {
	r := NewReassembler()

	got, done := r.Feed(sysEx7Packet(0, SysEx7End, []byte{1}))
	if done || got != nil {
		t.Errorf("end without start returned (%v, %v), want (nil, false)", got, done)
	}
	if r.InProgress() {
		t.Error("end without start set InProgress")
	}
}

func TestReassemblerStartDiscardsPartial(t *testing.T) {
	r := NewReassembler()

	r.Feed(sysEx7Packet(0, SysEx7Start, []byte{1, 2, 3}))
	r.Feed(sysEx7Packet(0, SysEx7Start, []byte{7, 8}))
	got, done := r.Feed(sysEx7Packet(0, SysEx7End, []byte{9}))

	if !done {
		t.Fatal("assembly did not complete")
	}
	if want := frame([]byte{7, 8, 9}); !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReassemblerIgnoresOtherMessageTypes(t *testing.T) {
	r := NewReassembler()

	r.Feed(sysEx7Packet(0, SysEx7Start, []byte{1, 2}))

	// A note message interleaved mid-assembly is not SysEx7 traffic.
	got, done := r.Feed(NoteOn(0, 0, 60, 100))
	if done || got != nil {
		t.Errorf("note packet returned (%v, %v), want (nil, false)", got, done)
	}
	if !r.InProgress() {
		t.Fatal("note packet disturbed the in-progress assembly")
	}

	got, done = r.Feed(sysEx7Packet(0, SysEx7End, []byte{3}))
	if !done || !bytes.Equal(got, frame([]byte{1, 2, 3})) {
		t.Errorf("assembly after interleaved note = %v", got)
	}
}

func TestReassemblerReservedStatus(t *testing.T) {
	r := NewReassembler()
	r.Feed(sysEx7Packet(0, SysEx7Start, []byte{1}))

	var p Packet
	p.Word0 = uint32(MessageTypeSysEx7)<<28 | uint32(0x7)<<20 | uint32(2)<<16
	got, done := r.Feed(p)
	if done || got != nil {
		t.Errorf("reserved status returned (%v, %v), want (nil, false)", got, done)
	}

	// The in-progress assembly is untouched.
	got, done = r.Feed(sysEx7Packet(0, SysEx7End, []byte{2}))
	if !done || !bytes.Equal(got, frame([]byte{1, 2})) {
		t.Errorf("assembly after reserved status = %v", got)
	}
}

func TestReassemblerByteCountOutOfRange(t *testing.T) {
	r := NewReassembler()

	var p Packet
	p.Word0 = uint32(MessageTypeSysEx7)<<28 | uint32(SysEx7Complete)<<20 | uint32(7)<<16
	got, done := r.Feed(p)
	if done || got != nil {
		t.Errorf("oversize byte count returned (%v, %v), want (nil, false)", got, done)
	}
	if r.InProgress() {
		t.Error("oversize byte count mutated state")
	}
}

func TestReassemblerReset(t *testing.T) {
	r := NewReassembler()

	r.Feed(sysEx7Packet(0, SysEx7Start, []byte{1, 2, 3}))
	if !r.InProgress() {
		t.Fatal("start packet did not begin assembly")
	}

	r.Reset()
	if r.InProgress() {
		t.Error("InProgress true after Reset")
	}

	// An end packet after reset is a sequencing error and returns nothing.
	got, done := r.Feed(sysEx7Packet(0, SysEx7End, []byte{4}))
	if done || got != nil {
		t.Errorf("end after reset returned (%v, %v), want (nil, false)", got, done)
	}
}

func TestStripSysExFraming(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"framed", []byte{0xF0, 0x7E, 0x0D, 0xF7}, []byte{0x7E, 0x0D}},
		{"unframed", []byte{0x7E, 0x0D}, []byte{0x7E, 0x0D}},
		{"start only", []byte{0xF0, 0x7E}, []byte{0x7E}},
		{"end only", []byte{0x7E, 0xF7}, []byte{0x7E}},
		{"empty frame", []byte{0xF0, 0xF7}, []byte{}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSysExFraming(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("StripSysExFraming(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestReassemblerLogsAssembledStream(t *testing.T) {
	logger := &capturingLogger{}
	r := NewReassembler()
	r.SetLogger(logger, "port-123")

	payload := testPayload(10)
	for _, p := range FragmentSysEx7(2, payload) {
		r.Feed(p)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.PortID != "port-123" {
		t.Errorf("PortID = %q, want %q", e.PortID, "port-123")
	}
	if e.Direction != log.DirectionIn {
		t.Errorf("Direction = %v, want DirectionIn", e.Direction)
	}
	if e.Layer != log.LayerSysEx {
		t.Errorf("Layer = %v, want LayerSysEx", e.Layer)
	}
	if e.Category != log.CategoryMessage {
		t.Errorf("Category = %v, want CategoryMessage", e.Category)
	}
	if e.Group != 2 {
		t.Errorf("Group = %d, want 2", e.Group)
	}
	if e.SysEx == nil {
		t.Fatal("SysEx is nil")
	}
	if e.SysEx.Size != len(payload)+2 {
		t.Errorf("SysEx.Size = %d, want %d", e.SysEx.Size, len(payload)+2)
	}
	if e.SysEx.Truncated {
		t.Error("SysEx.Truncated = true for small stream")
	}
}

func TestReassemblerLogsSequencingError(t *testing.T) {
	logger := &capturingLogger{}
	r := NewReassembler()
	r.SetLogger(logger, "port-456")

	r.Feed(sysEx7Packet(0, SysEx7Continue, []byte{1}))

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.Category != log.CategoryError {
		t.Errorf("Category = %v, want CategoryError", e.Category)
	}
	if e.Error == nil {
		t.Fatal("Error is nil")
	}
	if e.Error.Layer != log.LayerSysEx {
		t.Errorf("Error.Layer = %v, want LayerSysEx", e.Error.Layer)
	}
}

func TestReassemblerLogsTruncatedStream(t *testing.T) {
	logger := &capturingLogger{}
	r := NewReassembler()
	r.SetLogger(logger, "port-trunc")

	payload := testPayload(MaxLogSysExDataSize + 100)
	for _, p := range FragmentSysEx7(0, payload) {
		r.Feed(p)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.SysEx == nil {
		t.Fatal("SysEx is nil")
	}
	if e.SysEx.Size != len(payload)+2 {
		t.Errorf("SysEx.Size = %d, want %d", e.SysEx.Size, len(payload)+2)
	}
	if len(e.SysEx.Data) != MaxLogSysExDataSize {
		t.Errorf("SysEx.Data length = %d, want %d", len(e.SysEx.Data), MaxLogSysExDataSize)
	}
	if !e.SysEx.Truncated {
		t.Error("SysEx.Truncated = false, want true")
	}
}

func TestReassemblerNoLoggerNoPanic(t *testing.T) {
	r := NewReassembler()
	r.Feed(sysEx7Packet(0, SysEx7Continue, []byte{1}))

	r.SetLogger(nil, "port-id")
	got, done := r.Feed(sysEx7Packet(0, SysEx7Complete, []byte{5}))
	if !done || !bytes.Equal(got, frame([]byte{5})) {
		t.Errorf("assembly with nil logger = %v", got)
	}
}

func BenchmarkFragmentSysEx7(b *testing.B) {
	payload := testPayload(256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FragmentSysEx7(0, payload)
	}
}

func BenchmarkReassemblerFeed(b *testing.B) {
	payload := testPayload(256)
	packets := FragmentSysEx7(0, payload)
	r := NewReassembler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range packets {
			r.Feed(p)
		}
	}
}
