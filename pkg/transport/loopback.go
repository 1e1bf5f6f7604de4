package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// Loopback is an in-memory Transport whose output feeds its peer's input.
// Tests and the end-to-end scenario run two protocol stacks against a
// loopback pair instead of real MIDI ports.
type Loopback struct {
	mu sync.Mutex

	id   string
	peer *Loopback

	inputOpen  bool
	outputOpen bool

	onPacket func(ump.Packet)
	onState  func(inputOpen, outputOpen bool)

	protocolLogger log.Logger
}

// NewLoopbackPair returns two linked transports. A packet sent on one side
// is delivered synchronously to the other side's packet callback, provided
// the sender's output and the receiver's input are open. Both sides start
// closed; call Open on each.
func NewLoopbackPair() (*Loopback, *Loopback) {
	a := &Loopback{id: uuid.New().String()}
	b := &Loopback{id: uuid.New().String()}
	a.peer = b
	b.peer = a
	return a, b
}

// PortID implements Transport.
func (l *Loopback) PortID() string {
	return l.id
}

// SetProtocolLogger sets the protocol event logger for packets crossing
// this side of the pair.
func (l *Loopback) SetProtocolLogger(logger log.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.protocolLogger = logger
}

// OnPacket implements Transport.
func (l *Loopback) OnPacket(fn func(ump.Packet)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPacket = fn
}

// OnStateChange implements Transport.
func (l *Loopback) OnStateChange(fn func(inputOpen, outputOpen bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onState = fn
}

// InputOpen implements Transport.
func (l *Loopback) InputOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inputOpen
}

// OutputOpen implements Transport.
func (l *Loopback) OutputOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outputOpen
}

// Open opens both directions and fires the state callback.
func (l *Loopback) Open() {
	l.setState(true, true)
}

// Close implements Transport. Closing an already-closed side is a no-op.
func (l *Loopback) Close() error {
	l.setState(false, false)
	return nil
}

// setState records the new direction states and fires the state callback
// when anything changed.
func (l *Loopback) setState(inputOpen, outputOpen bool) {
	l.mu.Lock()
	if l.inputOpen == inputOpen && l.outputOpen == outputOpen {
		l.mu.Unlock()
		return
	}
	l.inputOpen = inputOpen
	l.outputOpen = outputOpen
	onState := l.onState
	l.mu.Unlock()

	if onState != nil {
		onState(inputOpen, outputOpen)
	}
}

// SendPacket implements Transport. The packet is handed to the peer's
// callback on the caller's goroutine, which keeps test scenarios
// deterministic.
func (l *Loopback) SendPacket(p ump.Packet) error {
	l.mu.Lock()
	if !l.outputOpen {
		l.mu.Unlock()
		return ErrPortClosed
	}
	plog := l.protocolLogger
	peer := l.peer
	l.mu.Unlock()

	if plog != nil {
		plog.Log(NewPacketEvent(l.id, log.DirectionOut, p))
	}
	peer.deliver(p)
	return nil
}

// deliver hands an inbound packet to this side's callback.
func (l *Loopback) deliver(p ump.Packet) {
	l.mu.Lock()
	if !l.inputOpen {
		l.mu.Unlock()
		return
	}
	onPacket := l.onPacket
	plog := l.protocolLogger
	l.mu.Unlock()

	if plog != nil {
		plog.Log(NewPacketEvent(l.id, log.DirectionIn, p))
	}
	if onPacket != nil {
		onPacket(p)
	}
}

// NewPacketEvent builds a packet-layer protocol log event. Transport
// implementations stamp one per packet crossing the port.
func NewPacketEvent(portID string, dir log.Direction, p ump.Packet) log.Event {
	ev := log.Event{
		Timestamp: time.Now(),
		PortID:    portID,
		Direction: dir,
		Layer:     log.LayerPacket,
		Category:  log.CategoryMessage,
		Group:     p.Group(),
		Packet: &log.PacketEvent{
			Words: p.Words(),
		},
	}
	if p.MessageType() == ump.MessageTypeSysEx7 {
		ev.Packet.Status = uint8(p.SysEx7Status())
	}
	return ev
}
