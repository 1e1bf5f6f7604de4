package keyboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/connection"
	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/property"
	"github.com/ump-ci/umpci-go/pkg/session"
	"github.com/ump-ci/umpci-go/pkg/transport"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// Controller errors.
var (
	ErrOutOfRange = errors.New("value out of MIDI range")
)

// Controller is the virtual keyboard: one transport port, the MIDI-CI
// session speaking over it, and the note-sending surface. Discovery runs
// automatically on the transition to connected; the device registry is
// cleared on the transition to disconnected.
type Controller struct {
	mu sync.Mutex

	transport transport.Transport
	portID    string
	group     uint8

	reassembler *ump.Reassembler
	writer      *transport.SysExWriter
	session     *session.DeviceSession
	tracker     *property.Tracker
	monitor     *connection.StateMonitor

	logger         *slog.Logger
	protocolLogger log.Logger

	closed bool
}

// NewController builds the stack over port, sending all traffic on the
// given UMP group. The config is validated before anything is wired.
func NewController(port transport.Transport, cfg session.Config, group uint8) (*Controller, error) {
	writer := transport.NewSysExWriterWithMaxSize(port, group, int(cfg.MaxSysExSize))
	sess, err := session.NewDeviceSession(cfg, writer)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		transport:   port,
		portID:      port.PortID(),
		group:       group & 0x0F,
		reassembler: ump.NewReassembler(),
		writer:      writer,
		session:     sess,
		tracker:     property.NewTracker(sess),
		monitor:     connection.NewStateMonitor(),
	}

	sess.OnPropertyReply(c.tracker.HandleReply)
	sess.OnDeviceInvalidated(c.tracker.Forget)
	c.monitor.OnChange(c.handleConnectionChange)
	port.OnPacket(c.handlePacket)
	return c, nil
}

// SetLogger sets the operational logger for every layer. Call before
// Start.
func (c *Controller) SetLogger(logger *slog.Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()

	c.session.SetLogger(logger)
	c.tracker.SetLogger(logger)
	c.monitor.SetLogger(logger)
}

// SetProtocolLogger sets the protocol event logger for every layer,
// stamping events with this port's ID. Call before Start. Transports that
// capture packet-layer events are wired too.
func (c *Controller) SetProtocolLogger(logger log.Logger) {
	c.mu.Lock()
	c.protocolLogger = logger
	c.mu.Unlock()

	c.reassembler.SetLogger(logger, c.portID)
	c.writer.SetLogger(logger, c.portID)
	c.session.SetProtocolLogger(logger, c.portID)
	if pl, ok := c.transport.(interface{ SetProtocolLogger(log.Logger) }); ok {
		pl.SetProtocolLogger(logger)
	}
}

// OnDevicesChanged sets the callback fired when the device registry
// changes.
func (c *Controller) OnDevicesChanged(fn func()) {
	c.session.OnDevicesChanged(fn)
}

// OnPropertiesChanged sets the callback fired when a device's cached
// properties change.
func (c *Controller) OnPropertiesChanged(fn func(ci.MUID)) {
	c.tracker.OnPropertiesChanged(fn)
}

// Start assigns the local MUID (zero generates one) and begins watching
// the transport: the connected edge broadcasts discovery, the disconnected
// edge clears the device registry. A transport that is already open
// triggers discovery before Start returns.
func (c *Controller) Start(muid ci.MUID) error {
	if err := c.session.Initialize(muid); err != nil {
		return err
	}
	c.transport.OnStateChange(c.monitor.Evaluate)
	c.monitor.Evaluate(c.transport.InputOpen(), c.transport.OutputOpen())
	return nil
}

// Discover broadcasts a discovery inquiry. Start does this on the
// connected edge; Discover re-runs it on demand.
func (c *Controller) Discover() error {
	return c.session.SendDiscovery()
}

// NoteOn sends a MIDI 2.0 note-on. Channel 0-15, note and velocity 0-127.
func (c *Controller) NoteOn(channel, note, velocity uint8) error {
	if channel > 0x0F || note > 0x7F || velocity > 0x7F {
		return fmt.Errorf("%w: channel %d note %d velocity %d", ErrOutOfRange, channel, note, velocity)
	}
	return c.transport.SendPacket(ump.NoteOn(c.group, channel, note, velocity))
}

// NoteOff sends a MIDI 2.0 note-off. Channel 0-15, note 0-127.
func (c *Controller) NoteOff(channel, note uint8) error {
	if channel > 0x0F || note > 0x7F {
		return fmt.Errorf("%w: channel %d note %d", ErrOutOfRange, channel, note)
	}
	return c.transport.SendPacket(ump.NoteOff(c.group, channel, note))
}

// AllNotesOff sends a note-off for every note 0-127 on the channel.
func (c *Controller) AllNotesOff(channel uint8) error {
	if channel > 0x0F {
		return fmt.Errorf("%w: channel %d", ErrOutOfRange, channel)
	}
	for note := uint8(0); note <= 0x7F; note++ {
		if err := c.transport.SendPacket(ump.NoteOff(c.group, channel, note)); err != nil {
			return fmt.Errorf("note %d: %w", note, err)
		}
	}
	return nil
}

// MUID returns the local MUID, zero before Start.
func (c *Controller) MUID() ci.MUID {
	return c.session.MUID()
}

// Connected returns the monitor's last evaluated transport state.
func (c *Controller) Connected() bool {
	return c.monitor.Connected()
}

// Devices returns a snapshot of every discovered device.
func (c *Controller) Devices() []session.RemoteDevice {
	return c.session.Devices()
}

// ReadyDevices returns the snapshot filtered to endpoint-ready devices.
func (c *Controller) ReadyDevices() []session.RemoteDevice {
	return c.session.ReadyDevices()
}

// Connection returns the registry snapshot for one device.
func (c *Controller) Connection(muid ci.MUID) (session.RemoteDevice, bool) {
	return c.session.Connection(muid)
}

// ControlList returns the device's cached controller list, requesting it
// when absent. Poll again after the properties-changed callback.
func (c *Controller) ControlList(muid ci.MUID) ([]property.Control, bool) {
	return c.tracker.ControlList(muid)
}

// ProgramList returns the device's cached program list, requesting it when
// absent. Poll again after the properties-changed callback.
func (c *Controller) ProgramList(muid ci.MUID) ([]property.Program, bool) {
	return c.tracker.ProgramList(muid)
}

// Reset drops every discovered device and cached property, keeping the
// local identity. The next discovery rebuilds the registry.
func (c *Controller) Reset() {
	c.session.Reset()
	c.tracker.Reset()
}

// Close retires the local MUID on the wire, then closes the transport.
// Closing twice is a no-op.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.session.Shutdown()
	c.tracker.Reset()
	return c.transport.Close()
}

// handlePacket runs on the transport's receive goroutine.
func (c *Controller) handlePacket(p ump.Packet) {
	stream, done := c.reassembler.Feed(p)
	if !done {
		return
	}
	c.session.HandleSysEx(stream)
}

// handleConnectionChange runs once per connection edge.
func (c *Controller) handleConnectionChange(connected bool) {
	c.mu.Lock()
	logger := c.logger
	c.mu.Unlock()

	if connected {
		c.logConnectionState("DISCONNECTED", "CONNECTED")
		if err := c.session.SendDiscovery(); err != nil && logger != nil {
			logger.Warn("discovery on connect failed", "error", err)
		}
		return
	}

	c.logConnectionState("CONNECTED", "DISCONNECTED")
	c.session.Reset()
	c.tracker.Reset()
}

func (c *Controller) logConnectionState(oldState, newState string) {
	c.mu.Lock()
	plogger := c.protocolLogger
	c.mu.Unlock()
	if plogger == nil {
		return
	}

	plogger.Log(log.Event{
		Timestamp: time.Now(),
		PortID:    c.portID,
		Direction: log.DirectionOut,
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		LocalMUID: uint32(c.session.MUID()),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   "transport state",
		},
	})
}
