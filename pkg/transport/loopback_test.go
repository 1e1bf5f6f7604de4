package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

func TestLoopbackPairDelivery(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	var got []ump.Packet
	b.OnPacket(func(p ump.Packet) {
		got = append(got, p)
	})

	sent := ump.NoteOn(0, 0, 60, 100)
	if err := a.SendPacket(sent); err != nil {
		t.Fatalf("SendPacket failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 delivered packet, got %d", len(got))
	}
	if got[0] != sent {
		t.Errorf("delivered packet = %+v, want %+v", got[0], sent)
	}
}

func TestLoopbackBidirectional(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	var aGot, bGot int
	a.OnPacket(func(ump.Packet) { aGot++ })
	b.OnPacket(func(ump.Packet) { bGot++ })

	if err := a.SendPacket(ump.NoteOn(0, 0, 60, 100)); err != nil {
		t.Fatalf("a.SendPacket failed: %v", err)
	}
	if err := b.SendPacket(ump.NoteOff(0, 0, 60)); err != nil {
		t.Fatalf("b.SendPacket failed: %v", err)
	}

	if aGot != 1 {
		t.Errorf("a received %d packets, want 1", aGot)
	}
	if bGot != 1 {
		t.Errorf("b received %d packets, want 1", bGot)
	}
}

func TestLoopbackPortIDsDistinct(t *testing.T) {
	a, b := NewLoopbackPair()

	if a.PortID() == "" || b.PortID() == "" {
		t.Fatal("port IDs must not be empty")
	}
	if a.PortID() == b.PortID() {
		t.Errorf("port IDs must differ, both are %q", a.PortID())
	}
}

func TestLoopbackSendOnClosedOutput(t *testing.T) {
	a, b := NewLoopbackPair()
	b.Open()

	// Both sides start closed
	err := a.SendPacket(ump.NoteOn(0, 0, 60, 100))
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected ErrPortClosed before Open, got %v", err)
	}

	a.Open()
	if err := a.SendPacket(ump.NoteOn(0, 0, 60, 100)); err != nil {
		t.Fatalf("SendPacket after Open failed: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	err = a.SendPacket(ump.NoteOn(0, 0, 60, 100))
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected ErrPortClosed after Close, got %v", err)
	}
}

func TestLoopbackDropsWhenReceiverClosed(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	// b stays closed

	delivered := 0
	b.OnPacket(func(ump.Packet) { delivered++ })

	// Send succeeds (our output is open) but the peer drops the packet.
	if err := a.SendPacket(ump.NoteOn(0, 0, 60, 100)); err != nil {
		t.Fatalf("SendPacket failed: %v", err)
	}
	if delivered != 0 {
		t.Errorf("closed receiver delivered %d packets, want 0", delivered)
	}
}

func TestLoopbackStateCallback(t *testing.T) {
	a, _ := NewLoopbackPair()

	type state struct{ in, out bool }
	var changes []state
	a.OnStateChange(func(inputOpen, outputOpen bool) {
		changes = append(changes, state{inputOpen, outputOpen})
	})

	a.Open()
	a.Open() // no change, no callback
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil { // no change, no callback
		t.Fatalf("second Close failed: %v", err)
	}

	want := []state{{true, true}, {false, false}}
	if len(changes) != len(want) {
		t.Fatalf("got %d state changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestLoopbackOpenStates(t *testing.T) {
	a, _ := NewLoopbackPair()

	if a.InputOpen() || a.OutputOpen() {
		t.Error("new loopback must start closed")
	}

	a.Open()
	if !a.InputOpen() || !a.OutputOpen() {
		t.Error("Open must open both directions")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if a.InputOpen() || a.OutputOpen() {
		t.Error("Close must close both directions")
	}
}

func TestLoopbackNoCallbacksNoPanic(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	// No OnPacket, no OnStateChange registered anywhere.
	if err := a.SendPacket(ump.NoteOn(0, 0, 60, 100)); err != nil {
		t.Fatalf("SendPacket failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
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

func TestLoopbackLogsPackets(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	aLog := &capturingLogger{}
	bLog := &capturingLogger{}
	a.SetProtocolLogger(aLog)
	b.SetProtocolLogger(bLog)

	sent := ump.FragmentSysEx7(0, []byte{0x7E, 0x7F, 0x0D})[0]
	if err := a.SendPacket(sent); err != nil {
		t.Fatalf("SendPacket failed: %v", err)
	}

	aEvents := aLog.Events()
	if len(aEvents) != 1 {
		t.Fatalf("sender logged %d events, want 1", len(aEvents))
	}
	out := aEvents[0]
	if out.PortID != a.PortID() {
		t.Errorf("PortID = %q, want %q", out.PortID, a.PortID())
	}
	if out.Direction != log.DirectionOut {
		t.Errorf("Direction = %v, want DirectionOut", out.Direction)
	}
	if out.Layer != log.LayerPacket {
		t.Errorf("Layer = %v, want LayerPacket", out.Layer)
	}
	if out.Packet == nil {
		t.Fatal("Packet is nil")
	}
	if len(out.Packet.Words) != 2 {
		t.Errorf("logged %d words, want 2", len(out.Packet.Words))
	}
	if out.Packet.Status != uint8(ump.SysEx7Complete) {
		t.Errorf("Status = %d, want complete", out.Packet.Status)
	}

	bEvents := bLog.Events()
	if len(bEvents) != 1 {
		t.Fatalf("receiver logged %d events, want 1", len(bEvents))
	}
	in := bEvents[0]
	if in.PortID != b.PortID() {
		t.Errorf("PortID = %q, want %q", in.PortID, b.PortID())
	}
	if in.Direction != log.DirectionIn {
		t.Errorf("Direction = %v, want DirectionIn", in.Direction)
	}
}

func TestLoopbackConcurrentSends(t *testing.T) {
	a, b := NewLoopbackPair()
	a.Open()
	b.Open()

	var mu sync.Mutex
	received := 0
	b.OnPacket(func(ump.Packet) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if err := a.SendPacket(ump.NoteOn(0, 0, 60, 100)); err != nil {
					t.Errorf("SendPacket failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if received != goroutines*perGoroutine {
		t.Errorf("received %d packets, want %d", received, goroutines*perGoroutine)
	}
}
