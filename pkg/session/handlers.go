package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/property"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// HandleSysEx processes one complete inbound SysEx stream. Non-CI SysEx is
// ignored; that is regular traffic for other consumers, not an error. Call
// from the transport's receive path; the session serializes internally.
func (s *DeviceSession) HandleSysEx(data []byte) {
	payload := ump.StripSysExFraming(data)
	if !ci.IsMIDICI(payload) {
		return
	}

	s.mu.Lock()
	muid := s.muid
	logger := s.logger
	s.mu.Unlock()
	if muid == 0 {
		if logger != nil {
			logger.Debug("dropping message, session not initialized")
		}
		return
	}

	m, err := ci.Decode(payload)
	if err != nil {
		if errors.Is(err, ci.ErrUnknownSubID) {
			// Newer CI revisions define messages we do not speak yet.
			if logger != nil {
				logger.Debug("ignoring unsupported message", "error", err)
			}
			return
		}
		s.logDecodeError(err)
		return
	}

	if dst := m.Destination(); dst != muid && !dst.IsBroadcast() {
		if logger != nil {
			logger.Debug("dropping message for other destination",
				"subID", m.SubID().String(),
				"destination", dst.String())
		}
		return
	}

	s.logMessage(log.DirectionIn, m)

	switch m := m.(type) {
	case *ci.DiscoveryInquiry:
		s.handleDiscoveryInquiry(m)
	case *ci.DiscoveryReply:
		s.handleDiscoveryReply(m)
	case *ci.EndpointInquiry:
		s.handleEndpointInquiry(m)
	case *ci.EndpointReply:
		s.handleEndpointReply(m)
	case *ci.InvalidateMUID:
		s.handleInvalidateMUID(m)
	case *ci.ProfileInquiry:
		s.handleProfileInquiry(m)
	case *ci.ProfileReply:
		s.handleProfileReply(m)
	case *ci.PECapabilityInquiry:
		s.handlePECapabilityInquiry(m)
	case *ci.PECapabilityReply:
		s.handlePECapabilityReply(m)
	case *ci.GetPropertyData:
		s.handleGetPropertyData(m)
	case *ci.GetPropertyDataReply:
		s.handleGetPropertyDataReply(m)
	case *ci.Ack:
		s.handleAck(m)
	case *ci.Nak:
		s.handleNak(m)
	}
}

func (s *DeviceSession) handleDiscoveryInquiry(m *ci.DiscoveryInquiry) {
	s.mu.Lock()
	if m.SourceMUID == s.muid {
		// Our own broadcast looped back through the transport.
		s.mu.Unlock()
		return
	}
	reply := &ci.DiscoveryReply{
		SourceMUID:      s.muid,
		DestinationMUID: m.SourceMUID,
		Device:          s.config.DeviceDetails(),
		Capabilities:    s.config.Capabilities(),
		MaxSysExSize:    s.config.MaxSysExSize,
		OutputPathID:    m.OutputPathID,
		FunctionBlock:   s.config.FunctionBlock,
	}
	logger := s.logger
	s.mu.Unlock()

	if err := s.transmit(reply); err != nil && logger != nil {
		logger.Warn("failed to answer discovery", "error", err, "destination", m.SourceMUID.String())
	}
}

func (s *DeviceSession) handleDiscoveryReply(m *ci.DiscoveryReply) {
	s.mu.Lock()
	if m.SourceMUID == s.muid {
		s.mu.Unlock()
		return
	}
	if dev, ok := s.devices[m.SourceMUID]; ok {
		// Repeated discovery round; refresh what the peer reports.
		dev.Details = m.Device
		dev.Capabilities = m.Capabilities
		dev.MaxSysExSize = m.MaxSysExSize
		logger := s.logger
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("device already known", "muid", m.SourceMUID.String())
		}
		return
	}
	dev := newRemoteDevice(m)
	s.devices[m.SourceMUID] = dev
	logger := s.logger
	onChanged := s.onDevicesChanged
	s.mu.Unlock()

	if logger != nil {
		logger.Info("device discovered",
			"muid", m.SourceMUID.String(),
			"capabilities", m.Capabilities.String(),
			"maxSysExSize", m.MaxSysExSize)
	}
	s.logState(log.DirectionIn, log.StateEntityDevice, m.SourceMUID, "UNKNOWN", "DISCOVERED", "discovery reply")
	if onChanged != nil {
		onChanged()
	}

	s.autoInquire(m.SourceMUID, m.Capabilities, logger)
}

// autoInquire chases a fresh discovery reply with the follow-up inquiries
// enabled in the config. Endpoint first: readiness gates everything else.
func (s *DeviceSession) autoInquire(muid ci.MUID, capabilities ci.Capability, logger *slog.Logger) {
	warn := func(what string, err error) {
		if err != nil && logger != nil {
			logger.Warn("auto inquiry failed", "inquiry", what, "muid", muid.String(), "error", err)
		}
	}
	if s.config.AutoEndpointInquiry {
		warn("endpoint", s.SendEndpointInquiry(muid))
	}
	if s.config.AutoProfileInquiry && capabilities.Has(ci.CapabilityProfileConfiguration) {
		warn("profile", s.SendProfileInquiry(muid))
	}
	if s.config.AutoPECapabilityInquiry && capabilities.Has(ci.CapabilityPropertyExchange) {
		warn("peCapability", s.SendPECapabilityInquiry(muid))
	}
}

func (s *DeviceSession) handleEndpointInquiry(m *ci.EndpointInquiry) {
	s.mu.Lock()
	logger := s.logger
	if m.Status != ci.EndpointStatusProductInstanceID {
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("unsupported endpoint status", "status", m.Status)
		}
		return
	}
	reply := &ci.EndpointReply{
		SourceMUID:      s.muid,
		DestinationMUID: m.SourceMUID,
		Status:          m.Status,
		Data:            []byte(s.config.SerialNumber),
	}
	s.mu.Unlock()

	if err := s.transmit(reply); err != nil && logger != nil {
		logger.Warn("failed to answer endpoint inquiry", "error", err, "destination", m.SourceMUID.String())
	}
}

func (s *DeviceSession) handleEndpointReply(m *ci.EndpointReply) {
	s.mu.Lock()
	logger := s.logger
	dev, ok := s.devices[m.SourceMUID]
	if !ok {
		s.mu.Unlock()
		if logger != nil {
			logger.Warn("endpoint reply from unknown device", "muid", m.SourceMUID.String())
		}
		return
	}
	if m.Status != ci.EndpointStatusProductInstanceID {
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("ignoring endpoint reply", "status", m.Status)
		}
		return
	}
	wasReady := dev.EndpointReady
	dev.ProductInstanceID = string(m.Data)
	dev.EndpointReady = true
	onChanged := s.onDevicesChanged
	s.mu.Unlock()

	if wasReady {
		return
	}
	if logger != nil {
		logger.Info("device ready",
			"muid", m.SourceMUID.String(),
			"productInstanceID", string(m.Data))
	}
	s.logState(log.DirectionIn, log.StateEntityDevice, m.SourceMUID, "DISCOVERED", "READY", "endpoint reply")
	if onChanged != nil {
		onChanged()
	}
}

func (s *DeviceSession) handleProfileInquiry(m *ci.ProfileInquiry) {
	s.mu.Lock()
	logger := s.logger
	if !s.config.ProfilesSupported {
		s.mu.Unlock()
		s.sendNak(m.SourceMUID, ci.SubIDProfileInquiry, "profiles not supported")
		return
	}
	reply := &ci.ProfileReply{
		SourceMUID:      s.muid,
		DestinationMUID: m.SourceMUID,
		Disabled:        []ci.ProfileID{ci.GMLevel1Profile},
	}
	s.mu.Unlock()

	if err := s.transmit(reply); err != nil && logger != nil {
		logger.Warn("failed to answer profile inquiry", "error", err, "destination", m.SourceMUID.String())
	}
}

func (s *DeviceSession) handleProfileReply(m *ci.ProfileReply) {
	s.mu.Lock()
	logger := s.logger
	dev, ok := s.devices[m.SourceMUID]
	if !ok {
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("profile reply from unknown device", "muid", m.SourceMUID.String())
		}
		return
	}
	dev.Profiles = append([]ci.ProfileID(nil), m.Enabled...)
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("profiles updated",
			"muid", m.SourceMUID.String(),
			"enabled", len(m.Enabled),
			"disabled", len(m.Disabled))
	}
}

func (s *DeviceSession) handlePECapabilityInquiry(m *ci.PECapabilityInquiry) {
	s.mu.Lock()
	logger := s.logger
	if !s.config.PropertyExchangeSupported {
		s.mu.Unlock()
		s.sendNak(m.SourceMUID, ci.SubIDPECapabilityInquiry, "property exchange not supported")
		return
	}
	reply := &ci.PECapabilityReply{
		SourceMUID:           s.muid,
		DestinationMUID:      m.SourceMUID,
		SimultaneousRequests: s.config.SimultaneousRequests,
	}
	s.mu.Unlock()

	if err := s.transmit(reply); err != nil && logger != nil {
		logger.Warn("failed to answer capability inquiry", "error", err, "destination", m.SourceMUID.String())
	}
}

func (s *DeviceSession) handlePECapabilityReply(m *ci.PECapabilityReply) {
	s.mu.Lock()
	logger := s.logger
	dev, ok := s.devices[m.SourceMUID]
	if !ok {
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("capability reply from unknown device", "muid", m.SourceMUID.String())
		}
		return
	}
	dev.SimultaneousRequests = m.SimultaneousRequests
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("property exchange capabilities updated",
			"muid", m.SourceMUID.String(),
			"simultaneousRequests", m.SimultaneousRequests)
	}
}

func (s *DeviceSession) handleGetPropertyData(m *ci.GetPropertyData) {
	s.mu.Lock()
	logger := s.logger
	if !s.config.PropertyExchangeSupported {
		s.mu.Unlock()
		s.sendNak(m.SourceMUID, ci.SubIDGetPropertyData, "property exchange not supported")
		return
	}
	// A keyboard controller consumes properties; it exposes none itself.
	reply := &ci.GetPropertyDataReply{
		SourceMUID:      s.muid,
		DestinationMUID: m.SourceMUID,
		RequestID:       m.RequestID,
		HeaderData:      []byte(`{"status":404}`),
	}
	s.mu.Unlock()

	if err := s.transmit(reply); err != nil && logger != nil {
		logger.Warn("failed to answer property request", "error", err, "destination", m.SourceMUID.String())
	}
}

func (s *DeviceSession) handleGetPropertyDataReply(m *ci.GetPropertyDataReply) {
	s.mu.Lock()
	logger := s.logger
	onReply := s.onPropertyReply
	s.mu.Unlock()

	if logger != nil {
		resource, _ := property.ResourceForRequestID(m.RequestID)
		logger.Debug("property reply received",
			"muid", m.SourceMUID.String(),
			"requestID", m.RequestID,
			"resource", resource,
			"bodySize", len(m.Body))
	}
	if onReply != nil {
		onReply(m.SourceMUID, m.RequestID, m.Body)
	}
}

func (s *DeviceSession) handleInvalidateMUID(m *ci.InvalidateMUID) {
	s.mu.Lock()
	logger := s.logger
	if m.TargetMUID == s.muid {
		// A peer is retiring our MUID, likely after detecting a collision.
		// Re-identifying is the application's call; surface it loudly.
		s.mu.Unlock()
		if logger != nil {
			logger.Warn("local MUID invalidated by peer",
				"muid", m.TargetMUID.String(),
				"source", m.SourceMUID.String())
		}
		return
	}
	dev, ok := s.devices[m.TargetMUID]
	if !ok {
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("invalidate for unknown device", "muid", m.TargetMUID.String())
		}
		return
	}
	oldState := "DISCOVERED"
	if dev.EndpointReady {
		oldState = "READY"
	}
	delete(s.devices, m.TargetMUID)
	onInvalidated := s.onDeviceInvalidated
	onChanged := s.onDevicesChanged
	s.mu.Unlock()

	if logger != nil {
		logger.Info("device invalidated", "muid", m.TargetMUID.String())
	}
	s.logState(log.DirectionIn, log.StateEntityDevice, m.TargetMUID, oldState, "REMOVED", "invalidate MUID")
	if onInvalidated != nil {
		onInvalidated(m.TargetMUID)
	}
	if onChanged != nil {
		onChanged()
	}
}

func (s *DeviceSession) handleAck(m *ci.Ack) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("ack received",
			"muid", m.SourceMUID.String(),
			"originalSubID", m.OriginalSubID.String())
	}
}

func (s *DeviceSession) handleNak(m *ci.Nak) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()

	if logger != nil {
		logger.Warn("nak received",
			"muid", m.SourceMUID.String(),
			"originalSubID", m.OriginalSubID.String(),
			"statusCode", m.StatusCode,
			"text", string(m.Text))
	}
}

// sendNak rejects a message category this session does not implement.
func (s *DeviceSession) sendNak(destination ci.MUID, original ci.SubID, text string) {
	s.mu.Lock()
	nak := &ci.Nak{
		SourceMUID:      s.muid,
		DestinationMUID: destination,
		OriginalSubID:   original,
		Text:            []byte(text),
	}
	logger := s.logger
	s.mu.Unlock()

	if err := s.transmit(nak); err != nil && logger != nil {
		logger.Warn("failed to send nak", "error", err, "destination", destination.String())
	}
}

// logDecodeError records a malformed CI payload both operationally and as
// a protocol error event.
func (s *DeviceSession) logDecodeError(err error) {
	s.mu.Lock()
	logger := s.logger
	plogger := s.protocolLogger
	portID := s.portID
	local := s.muid
	s.mu.Unlock()

	if logger != nil {
		logger.Warn("failed to decode message", "error", err)
	}
	if plogger == nil {
		return
	}
	plogger.Log(log.Event{
		Timestamp: time.Now(),
		PortID:    portID,
		Direction: log.DirectionIn,
		Layer:     log.LayerCI,
		Category:  log.CategoryError,
		LocalMUID: uint32(local),
		Error: &log.ErrorEventData{
			Layer:   log.LayerCI,
			Message: err.Error(),
			Context: "decode",
		},
	})
}
