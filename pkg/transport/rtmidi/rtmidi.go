// Package rtmidi adapts real MIDI ports to the UMP transport boundary via
// the rtmidi driver. SysEx7 packet streams are bridged to classic MIDI 1.0
// byte-stream System Exclusive in both directions, and outbound MIDI 2.0
// note packets are downconverted to MIDI 1.0 channel voice messages, so
// MIDI-CI runs unchanged against 1.0-era hardware and virtual ports.
package rtmidi

import (
	"fmt"
	"strings"
	"sync"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/google/uuid"

	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/transport"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// Port is a transport.Transport backed by one rtmidi input/output port
// pair. The receive callback runs on the driver's MIDI receive goroutine.
//
// rtmidi reports no unplug events, so the open states reflect lifecycle
// calls: open from construction until Close.
type Port struct {
	mu sync.Mutex

	id    string
	name  string
	group uint8

	drv  *rtmididrv.Driver
	in   drivers.In
	out  drivers.Out
	stop func()
	send func(midi.Message) error

	// outbound collects SysEx7 fragments back into one byte-stream SysEx.
	outbound *ump.Reassembler

	onPacket func(ump.Packet)
	onState  func(inputOpen, outputOpen bool)

	protocolLogger log.Logger

	closed bool
}

var _ transport.Transport = (*Port)(nil)

// Ports lists the MIDI input and output port names visible to the driver.
func Ports() (inputs, outputs []string, err error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("open MIDI driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	for _, in := range ins {
		inputs = append(inputs, in.String())
	}
	for _, out := range outs {
		outputs = append(outputs, out.String())
	}
	return inputs, outputs, nil
}

// Open connects to existing MIDI ports matched by name, exact first and
// substring second. All traffic is carried on the given UMP group.
func Open(inName, outName string, group uint8) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open MIDI driver: %w", err)
	}

	in, err := findIn(drv, inName)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	out, err := findOut(drv, outName)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return newPort(drv, in, out, inName, group)
}

// OpenVirtual creates a virtual input/output port pair under the given
// name, where the backend supports virtual ports.
func OpenVirtual(name string, group uint8) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open MIDI driver: %w", err)
	}

	in, err := drv.OpenVirtualIn(name)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("open virtual input %q: %w", name, err)
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("open virtual output %q: %w", name, err)
	}
	return newPort(drv, in, out, name, group)
}

func newPort(drv *rtmididrv.Driver, in drivers.In, out drivers.Out, name string, group uint8) (*Port, error) {
	p := &Port{
		id:       uuid.New().String(),
		name:     name,
		group:    group & 0x0F,
		drv:      drv,
		in:       in,
		out:      out,
		outbound: ump.NewReassembler(),
	}

	stop, err := midi.ListenTo(in, p.handleMessage, midi.UseSysEx())
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("listen on %q: %w", in.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		stop()
		_ = drv.Close()
		return nil, fmt.Errorf("open sender on %q: %w", out.String(), err)
	}
	p.stop = stop
	p.send = send
	return p, nil
}

func findIn(drv *rtmididrv.Driver, name string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	for _, in := range ins {
		if strings.Contains(in.String(), name) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("MIDI input not found: %s", name)
}

func findOut(drv *rtmididrv.Driver, name string) (drivers.Out, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if out.String() == name {
			return out, nil
		}
	}
	for _, out := range outs {
		if strings.Contains(out.String(), name) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("MIDI output not found: %s", name)
}

// PortID implements transport.Transport.
func (p *Port) PortID() string {
	return p.id
}

// Name returns the human-readable port name for display.
func (p *Port) Name() string {
	return p.name
}

// SetProtocolLogger sets the protocol event logger for packets crossing
// this port.
func (p *Port) SetProtocolLogger(logger log.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.protocolLogger = logger
}

// OnPacket implements transport.Transport.
func (p *Port) OnPacket(fn func(ump.Packet)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPacket = fn
}

// OnStateChange implements transport.Transport. rtmidi fires it on Close
// only; there is no hot-unplug notification.
func (p *Port) OnStateChange(fn func(inputOpen, outputOpen bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onState = fn
}

// InputOpen implements transport.Transport.
func (p *Port) InputOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && p.in != nil && p.in.IsOpen()
}

// OutputOpen implements transport.Transport.
func (p *Port) OutputOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && p.out != nil && p.out.IsOpen()
}

// SendPacket implements transport.Transport. SysEx7 fragments are
// collected and sent as one byte-stream SysEx when the final fragment
// arrives; MIDI 2.0 note packets are downconverted and sent immediately,
// so notes can overtake an in-flight SysEx. That reordering is harmless:
// MIDI-CI exchanges and note traffic are independent streams.
func (p *Port) SendPacket(pkt ump.Packet) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return transport.ErrPortClosed
	}
	send := p.send
	plog := p.protocolLogger
	p.mu.Unlock()

	if plog != nil {
		plog.Log(transport.NewPacketEvent(p.id, log.DirectionOut, pkt))
	}

	switch pkt.MessageType() {
	case ump.MessageTypeSysEx7:
		p.mu.Lock()
		stream, done := p.outbound.Feed(pkt)
		p.mu.Unlock()
		if !done {
			return nil
		}
		return send(midi.SysEx(ump.StripSysExFraming(stream)))

	case ump.MessageTypeMIDI2:
		msg, ok := downconvertNote(pkt)
		if !ok {
			return nil
		}
		return send(msg)

	default:
		return nil
	}
}

// Close stops the listener, closes both ports and releases the driver.
// Closing twice is a no-op.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	stop := p.stop
	in, out, drv := p.in, p.out, p.drv
	onState := p.onState
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	var firstErr error
	if in != nil {
		if err := in.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close input: %w", err)
		}
	}
	if out != nil {
		if err := out.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close output: %w", err)
		}
	}
	if drv != nil {
		if err := drv.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close driver: %w", err)
		}
	}
	if onState != nil {
		onState(false, false)
	}
	return firstErr
}

// handleMessage runs on the driver's receive goroutine.
func (p *Port) handleMessage(msg midi.Message, timestampms int32) {
	var (
		data                   []byte
		channel, key, velocity uint8
	)
	switch {
	case msg.GetSysEx(&data):
		for _, pkt := range ump.FragmentSysEx7(p.group, ump.StripSysExFraming(data)) {
			p.deliver(pkt)
		}
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity > 0 {
			p.deliver(ump.NoteOn(p.group, channel, key, velocity))
		} else {
			p.deliver(ump.NoteOff(p.group, channel, key))
		}
	case msg.GetNoteOff(&channel, &key, &velocity):
		p.deliver(ump.NoteOff(p.group, channel, key))
	}
}

func (p *Port) deliver(pkt ump.Packet) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	onPacket := p.onPacket
	plog := p.protocolLogger
	p.mu.Unlock()

	if plog != nil {
		plog.Log(transport.NewPacketEvent(p.id, log.DirectionIn, pkt))
	}
	if onPacket != nil {
		onPacket(pkt)
	}
}

// downconvertNote maps a MIDI 2.0 note packet to its MIDI 1.0 channel
// voice message. The 16-bit velocity drops to 7 bits by taking the high
// byte, the inverse of the byte-repetition upscale. Other MIDI 2.0
// opcodes have no 1.0 equivalent here and are dropped.
func downconvertNote(pkt ump.Packet) (midi.Message, bool) {
	status := uint8(pkt.Word0 >> 16)
	channel := status & 0x0F
	note := uint8(pkt.Word0>>8) & 0x7F
	switch status & 0xF0 {
	case 0x90:
		velocity := uint8(pkt.Word1>>24) & 0x7F
		return midi.NoteOn(channel, note, velocity), true
	case 0x80:
		return midi.NoteOff(channel, note), true
	default:
		return nil, false
	}
}
