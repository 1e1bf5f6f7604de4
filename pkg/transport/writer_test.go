package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/transport/mocks"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// recordingSender records sent packets and can fail at a given send index.
type recordingSender struct {
	packets []ump.Packet
	failAt  int // 1-based packet index to fail at, 0 = never
	err     error
}

func (s *recordingSender) SendPacket(p ump.Packet) error {
	if s.failAt > 0 && len(s.packets)+1 == s.failAt {
		return s.err
	}
	s.packets = append(s.packets, p)
	return nil
}

func TestSysExWriterRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		payload     []byte
		wantPackets int
	}{
		{
			name:        "single byte",
			payload:     []byte{0x42},
			wantPackets: 1,
		},
		{
			name:        "exactly one packet",
			payload:     []byte{1, 2, 3, 4, 5, 6},
			wantPackets: 1,
		},
		{
			name:        "two packets",
			payload:     []byte{1, 2, 3, 4, 5, 6, 7},
			wantPackets: 2,
		},
		{
			name:        "discovery sized",
			payload:     bytes.Repeat([]byte{0x55}, 30),
			wantPackets: 5,
		},
		{
			name:        "large stream",
			payload:     bytes.Repeat([]byte{0x2A}, 1000),
			wantPackets: 167,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			writer := NewSysExWriter(sender, 0)

			if err := writer.SendSysEx(tt.payload); err != nil {
				t.Fatalf("SendSysEx failed: %v", err)
			}
			if len(sender.packets) != tt.wantPackets {
				t.Fatalf("sent %d packets, want %d", len(sender.packets), tt.wantPackets)
			}

			// The receiving side must reassemble the identical stream.
			r := ump.NewReassembler()
			var assembled []byte
			for _, p := range sender.packets {
				if data, done := r.Feed(p); done {
					assembled = data
				}
			}
			want := append([]byte{ump.SysExStartByte}, tt.payload...)
			want = append(want, ump.SysExEndByte)
			if !bytes.Equal(assembled, want) {
				t.Errorf("reassembled %d bytes, want %d", len(assembled), len(want))
			}
		})
	}
}

func TestSysExWriterPacketStatuses(t *testing.T) {
	sender := &recordingSender{}
	writer := NewSysExWriter(sender, 0)

	// 13 bytes: start(6) + continue(6) + end(1)
	if err := writer.SendSysEx(bytes.Repeat([]byte{0x11}, 13)); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}

	want := []ump.SysEx7Status{ump.SysEx7Start, ump.SysEx7Continue, ump.SysEx7End}
	if len(sender.packets) != len(want) {
		t.Fatalf("sent %d packets, want %d", len(sender.packets), len(want))
	}
	for i, p := range sender.packets {
		if p.SysEx7Status() != want[i] {
			t.Errorf("packet %d status = %v, want %v", i, p.SysEx7Status(), want[i])
		}
	}
}

func TestSysExWriterGroup(t *testing.T) {
	sender := &recordingSender{}
	writer := NewSysExWriter(sender, 5)

	if err := writer.SendSysEx([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}
	if len(sender.packets) != 1 {
		t.Fatalf("sent %d packets, want 1", len(sender.packets))
	}
	if g := sender.packets[0].Group(); g != 5 {
		t.Errorf("packet group = %d, want 5", g)
	}
}

func TestSysExWriterEmptyPayload(t *testing.T) {
	writer := NewSysExWriter(&recordingSender{}, 0)

	if err := writer.SendSysEx(nil); !errors.Is(err, ErrSysExEmpty) {
		t.Errorf("expected ErrSysExEmpty for nil, got %v", err)
	}
	if err := writer.SendSysEx([]byte{}); !errors.Is(err, ErrSysExEmpty) {
		t.Errorf("expected ErrSysExEmpty, got %v", err)
	}
}

func TestSysExWriterTooLarge(t *testing.T) {
	writer := NewSysExWriterWithMaxSize(&recordingSender{}, 0, 100)

	err := writer.SendSysEx(bytes.Repeat([]byte{0x01}, 101))
	if !errors.Is(err, ErrSysExTooLarge) {
		t.Errorf("expected ErrSysExTooLarge, got %v", err)
	}
}

func TestSysExWriterSendError(t *testing.T) {
	sender := &recordingSender{failAt: 2, err: ErrPortClosed}
	writer := NewSysExWriter(sender, 0)

	err := writer.SendSysEx(bytes.Repeat([]byte{0x01}, 13))
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected wrapped ErrPortClosed, got %v", err)
	}
	if len(sender.packets) != 1 {
		t.Errorf("sent %d packets before failure, want 1", len(sender.packets))
	}
}

func TestSysExWriterAbortsAfterSendError(t *testing.T) {
	sender := mocks.NewMockPacketSender(t)
	sender.EXPECT().SendPacket(mock.Anything).Return(nil).Once()
	sender.EXPECT().SendPacket(mock.Anything).Return(ErrPortClosed).Once()

	writer := NewSysExWriter(sender, 0)

	// Four packets worth of payload; the mock rejects any send past the
	// failing second one.
	err := writer.SendSysEx(bytes.Repeat([]byte{0x01}, 20))
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected wrapped ErrPortClosed, got %v", err)
	}
}

func TestSysExWriterLogsOnSend(t *testing.T) {
	sender := &recordingSender{}
	logger := &capturingLogger{}

	writer := NewSysExWriter(sender, 0)
	writer.SetLogger(logger, "port-123")

	payload := []byte{0x7E, 0x7F, 0x0D, 0x70, 0x02}
	if err := writer.SendSysEx(payload); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.PortID != "port-123" {
		t.Errorf("PortID = %q, want %q", e.PortID, "port-123")
	}
	if e.Direction != log.DirectionOut {
		t.Errorf("Direction = %v, want DirectionOut", e.Direction)
	}
	if e.Layer != log.LayerSysEx {
		t.Errorf("Layer = %v, want LayerSysEx", e.Layer)
	}
	if e.Category != log.CategoryMessage {
		t.Errorf("Category = %v, want CategoryMessage", e.Category)
	}
	if e.SysEx == nil {
		t.Fatal("SysEx is nil")
	}
	// Logged data carries the 0xF0/0xF7 framing like inbound captures.
	if e.SysEx.Size != len(payload)+2 {
		t.Errorf("SysEx.Size = %d, want %d", e.SysEx.Size, len(payload)+2)
	}
	wantData := append([]byte{ump.SysExStartByte}, payload...)
	wantData = append(wantData, ump.SysExEndByte)
	if !bytes.Equal(e.SysEx.Data, wantData) {
		t.Errorf("SysEx.Data = %v, want %v", e.SysEx.Data, wantData)
	}
	if e.SysEx.Truncated {
		t.Error("SysEx.Truncated = true, want false")
	}
}

func TestSysExWriterLogsTruncatedData(t *testing.T) {
	sender := &recordingSender{}
	logger := &capturingLogger{}

	writer := NewSysExWriterWithMaxSize(sender, 0, 8192)
	writer.SetLogger(logger, "port-trunc")

	payload := bytes.Repeat([]byte{0x33}, 5000)
	if err := writer.SendSysEx(payload); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
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
	if len(e.SysEx.Data) != ump.MaxLogSysExDataSize {
		t.Errorf("SysEx.Data length = %d, want %d", len(e.SysEx.Data), ump.MaxLogSysExDataSize)
	}
	if !e.SysEx.Truncated {
		t.Error("SysEx.Truncated = false, want true")
	}
}

func TestSysExWriterNoLoggerNoPanic(t *testing.T) {
	writer := NewSysExWriter(&recordingSender{}, 0)
	if err := writer.SendSysEx([]byte{0x01}); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}

	writer.SetLogger(nil, "port-id")
	if err := writer.SendSysEx([]byte{0x02}); err != nil {
		t.Fatalf("SendSysEx with nil logger failed: %v", err)
	}
}

func TestSysExWriterOverLoopback(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	r := ump.NewReassembler()
	var assembled [][]byte
	b.OnPacket(func(p ump.Packet) {
		if data, done := r.Feed(p); done {
			assembled = append(assembled, data)
		}
	})

	writer := NewSysExWriter(a, 0)
	first := bytes.Repeat([]byte{0x01}, 20)
	second := bytes.Repeat([]byte{0x02}, 3)
	if err := writer.SendSysEx(first); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}
	if err := writer.SendSysEx(second); err != nil {
		t.Fatalf("SendSysEx failed: %v", err)
	}

	if len(assembled) != 2 {
		t.Fatalf("reassembled %d streams, want 2", len(assembled))
	}
	if got := ump.StripSysExFraming(assembled[0]); !bytes.Equal(got, first) {
		t.Errorf("first stream mismatch: got %d bytes, want %d", len(got), len(first))
	}
	if got := ump.StripSysExFraming(assembled[1]); !bytes.Equal(got, second) {
		t.Errorf("second stream mismatch: got %d bytes, want %d", len(got), len(second))
	}
}

// discardSender drops packets, for benchmarks.
type discardSender struct{}

func (discardSender) SendPacket(ump.Packet) error { return nil }

func BenchmarkSysExWriterSend(b *testing.B) {
	writer := NewSysExWriter(discardSender{}, 0)
	payload := bytes.Repeat([]byte{0x2A}, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := writer.SendSysEx(payload); err != nil {
			b.Fatal(err)
		}
	}
}
