package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/property"
)

// SysExSender transmits one complete MIDI-CI SysEx payload. The payload is
// unframed; the transport layer adds the 0xF0/0xF7 bytes and fragments
// into packets. Implemented by transport.SysExWriter.
type SysExSender interface {
	SendSysEx(payload []byte) error
}

// DeviceSession owns one local MIDI-CI identity and the registry of
// discovered remote devices. It never blocks on I/O: sends are
// fire-and-forget through the SysExSender, and receives arrive through
// HandleSysEx.
type DeviceSession struct {
	mu sync.Mutex

	// config is immutable after construction.
	config Config

	sender SysExSender

	// muid is the local identity; zero until Initialize.
	muid ci.MUID

	devices map[ci.MUID]*RemoteDevice

	logger         *slog.Logger
	protocolLogger log.Logger
	portID         string

	onDevicesChanged    func()
	onDeviceInvalidated func(ci.MUID)
	onPropertyReply     func(muid ci.MUID, requestID uint8, body []byte)
}

// The session is the tracker's outbound request path.
var _ property.Sender = (*DeviceSession)(nil)

// NewDeviceSession creates an uninitialized session transmitting through
// sender. The config is validated up front.
func NewDeviceSession(config Config, sender SysExSender) (*DeviceSession, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DeviceSession{
		config:  config,
		sender:  sender,
		devices: make(map[ci.MUID]*RemoteDevice),
	}, nil
}

// SetLogger sets the operational logger. Call before Initialize.
func (s *DeviceSession) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetProtocolLogger sets the protocol event logger and the port ID stamped
// into its events. Call before Initialize.
func (s *DeviceSession) SetProtocolLogger(logger log.Logger, portID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocolLogger = logger
	s.portID = portID
}

// OnDevicesChanged sets the callback fired whenever the registry changes:
// a device appears, becomes ready, is removed, or the registry is cleared.
// There is no payload; callers re-read the snapshot they care about.
func (s *DeviceSession) OnDevicesChanged(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDevicesChanged = fn
}

// OnDeviceInvalidated sets the callback fired with the MUID of a device
// removed by an invalidate message, so per-device caches can be dropped.
func (s *DeviceSession) OnDeviceInvalidated(fn func(ci.MUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDeviceInvalidated = fn
}

// OnPropertyReply sets the callback receiving get-property-data reply
// bodies, keyed by the replying device and the echoed request ID.
// Typically wired to property.Tracker.HandleReply.
func (s *DeviceSession) OnPropertyReply(fn func(muid ci.MUID, requestID uint8, body []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPropertyReply = fn
}

// Initialize assigns the local MUID and makes the session operational. A
// zero muid generates a random one in the valid 28-bit space. Initializing
// an already initialized session is a no-op: the existing MUID is kept
// even when a different one is passed.
func (s *DeviceSession) Initialize(muid ci.MUID) error {
	s.mu.Lock()
	if s.muid != 0 {
		s.mu.Unlock()
		return nil
	}
	if muid == 0 {
		muid = ci.GenerateMUID()
	} else if !muid.Valid() || muid.IsReserved() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ci.ErrInvalidMUID, muid)
	}
	s.muid = muid
	logger := s.logger
	s.mu.Unlock()

	s.logState(log.DirectionOut, log.StateEntitySession, 0, "UNINITIALIZED", "INITIALIZED", "initialize")
	if logger != nil {
		logger.Info("session initialized",
			"muid", muid.String(),
			"capabilities", s.config.Capabilities().String())
	}
	return nil
}

// MUID returns the local MUID, zero until Initialize.
func (s *DeviceSession) MUID() ci.MUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muid
}

// SendDiscovery broadcasts a discovery inquiry announcing the local
// identity. Peers answer with discovery replies, which populate the
// device registry as they arrive.
func (s *DeviceSession) SendDiscovery() error {
	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	m := &ci.DiscoveryInquiry{
		SourceMUID:   s.muid,
		Device:       s.config.DeviceDetails(),
		Capabilities: s.config.Capabilities(),
		MaxSysExSize: s.config.MaxSysExSize,
		OutputPathID: s.config.OutputPathID,
	}
	s.mu.Unlock()

	return s.transmit(m)
}

// SendEndpointInquiry asks a device for its product instance ID. The
// answer flips the device's EndpointReady flag.
func (s *DeviceSession) SendEndpointInquiry(muid ci.MUID) error {
	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	m := &ci.EndpointInquiry{
		SourceMUID:      s.muid,
		DestinationMUID: muid,
		Status:          ci.EndpointStatusProductInstanceID,
	}
	s.mu.Unlock()

	return s.transmit(m)
}

// SendProfileInquiry asks a device for its profile sets.
func (s *DeviceSession) SendProfileInquiry(muid ci.MUID) error {
	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	m := &ci.ProfileInquiry{
		SourceMUID:      s.muid,
		DestinationMUID: muid,
	}
	s.mu.Unlock()

	return s.transmit(m)
}

// SendPECapabilityInquiry asks a device for its property exchange
// capabilities.
func (s *DeviceSession) SendPECapabilityInquiry(muid ci.MUID) error {
	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	m := &ci.PECapabilityInquiry{
		SourceMUID:           s.muid,
		DestinationMUID:      muid,
		SimultaneousRequests: s.config.SimultaneousRequests,
	}
	s.mu.Unlock()

	return s.transmit(m)
}

// SendPropertyRequest sends a get-property-data request for the named
// resource. Requests to devices missing from the registry are rejected;
// no property operation is possible for a MUID until its discovery reply
// has been seen.
func (s *DeviceSession) SendPropertyRequest(muid ci.MUID, resource string) error {
	requestID, err := property.RequestIDForResource(resource)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if _, ok := s.devices[muid]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, muid)
	}
	m := &ci.GetPropertyData{
		SourceMUID:      s.muid,
		DestinationMUID: muid,
		RequestID:       requestID,
		HeaderData:      property.RequestHeader(resource),
	}
	s.mu.Unlock()

	return s.transmit(m)
}

// Devices returns a snapshot of every discovered device, ordered by MUID.
func (s *DeviceSession) Devices() []RemoteDevice {
	s.mu.Lock()
	out := make([]RemoteDevice, 0, len(s.devices))
	for _, dev := range s.devices {
		out = append(out, dev.clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MUID < out[j].MUID })
	return out
}

// ReadyDevices returns the snapshot filtered to endpoint-ready devices.
func (s *DeviceSession) ReadyDevices() []RemoteDevice {
	devices := s.Devices()
	ready := devices[:0]
	for _, dev := range devices {
		if dev.EndpointReady {
			ready = append(ready, dev)
		}
	}
	return ready
}

// Connection returns the registry snapshot for one device. The boolean is
// false when the MUID is unknown.
func (s *DeviceSession) Connection(muid ci.MUID) (RemoteDevice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[muid]
	if !ok {
		return RemoteDevice{}, false
	}
	return dev.clone(), true
}

// Reset drops every discovered device while keeping the local identity.
// Wired to the disconnected edge so a reconnect starts from a clean
// registry.
func (s *DeviceSession) Reset() {
	s.mu.Lock()
	dropped := len(s.devices)
	s.devices = make(map[ci.MUID]*RemoteDevice)
	logger := s.logger
	onChanged := s.onDevicesChanged
	s.mu.Unlock()

	if logger != nil {
		logger.Info("session reset", "droppedDevices", dropped)
	}
	if dropped > 0 && onChanged != nil {
		onChanged()
	}
}

// Shutdown broadcasts an invalidate for the local MUID, clears the
// registry and returns the session to the uninitialized state. A later
// Initialize starts a fresh identity. Shutting down an uninitialized
// session is a no-op.
func (s *DeviceSession) Shutdown() {
	s.mu.Lock()
	if s.muid == 0 {
		s.mu.Unlock()
		return
	}
	invalidate := &ci.InvalidateMUID{SourceMUID: s.muid, TargetMUID: s.muid}
	dropped := len(s.devices)
	s.muid = 0
	s.devices = make(map[ci.MUID]*RemoteDevice)
	logger := s.logger
	onChanged := s.onDevicesChanged
	s.mu.Unlock()

	// Best effort: peers drop us from their registries on receipt, but a
	// transport that is already gone must not block shutdown.
	if err := s.transmit(invalidate); err != nil && logger != nil {
		logger.Debug("shutdown invalidate not sent", "error", err)
	}

	s.logState(log.DirectionOut, log.StateEntitySession, 0, "INITIALIZED", "UNINITIALIZED", "shutdown")
	if logger != nil {
		logger.Info("session shut down", "droppedDevices", dropped)
	}
	if dropped > 0 && onChanged != nil {
		onChanged()
	}
}

// transmit encodes and sends m, logging the message event on success.
// Never called with the session lock held: over a synchronous transport
// the send can re-enter HandleSysEx with the peer's reply.
func (s *DeviceSession) transmit(m ci.Message) error {
	payload, err := ci.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.SubID(), err)
	}
	if err := s.sender.SendSysEx(payload); err != nil {
		return fmt.Errorf("send %s: %w", m.SubID(), err)
	}
	s.logMessage(log.DirectionOut, m)
	return nil
}

// logMessage emits a CI-layer protocol event. Called outside the lock.
func (s *DeviceSession) logMessage(dir log.Direction, m ci.Message) {
	s.mu.Lock()
	plogger := s.protocolLogger
	portID := s.portID
	local := s.muid
	s.mu.Unlock()
	if plogger == nil {
		return
	}

	remote := m.Source()
	if dir == log.DirectionOut {
		remote = m.Destination()
	}
	ev := log.Event{
		Timestamp:  time.Now(),
		PortID:     portID,
		Direction:  dir,
		Layer:      log.LayerCI,
		Category:   log.CategoryMessage,
		LocalMUID:  uint32(local),
		RemoteMUID: uint32(remote),
		Message: &log.MessageEvent{
			SubID:           uint8(m.SubID()),
			SourceMUID:      uint32(m.Source()),
			DestinationMUID: uint32(m.Destination()),
		},
	}
	switch m := m.(type) {
	case *ci.GetPropertyData:
		ev.Message.RequestID, ev.Message.Resource, ev.Message.BodySize = propertyEventFields(m.RequestID, m.Body)
	case *ci.GetPropertyDataReply:
		ev.Message.RequestID, ev.Message.Resource, ev.Message.BodySize = propertyEventFields(m.RequestID, m.Body)
	}
	plogger.Log(ev)
}

// propertyEventFields derives the property-specific event fields.
func propertyEventFields(requestID uint8, body []byte) (*uint8, string, *int) {
	id := requestID
	size := len(body)
	resource, _ := property.ResourceForRequestID(requestID)
	return &id, resource, &size
}

// logState emits a state-change protocol event. Called outside the lock.
func (s *DeviceSession) logState(dir log.Direction, entity log.StateEntity, remote ci.MUID, oldState, newState, reason string) {
	s.mu.Lock()
	plogger := s.protocolLogger
	portID := s.portID
	local := s.muid
	s.mu.Unlock()
	if plogger == nil {
		return
	}

	plogger.Log(log.Event{
		Timestamp:  time.Now(),
		PortID:     portID,
		Direction:  dir,
		Layer:      log.LayerSession,
		Category:   log.CategoryState,
		LocalMUID:  uint32(local),
		RemoteMUID: uint32(remote),
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
