package ci

import "fmt"

// SubID is the MIDI-CI sub-ID#2 byte identifying the message kind.
type SubID uint8

const (
	// SubIDProfileInquiry asks a device for its profile sets.
	SubIDProfileInquiry SubID = 0x20

	// SubIDProfileReply lists enabled and disabled profiles.
	SubIDProfileReply SubID = 0x21

	// SubIDPECapabilityInquiry asks for property exchange capabilities.
	SubIDPECapabilityInquiry SubID = 0x30

	// SubIDPECapabilityReply answers a property exchange capability inquiry.
	SubIDPECapabilityReply SubID = 0x31

	// SubIDGetPropertyData requests a named property's data.
	SubIDGetPropertyData SubID = 0x34

	// SubIDGetPropertyDataReply carries the requested property data.
	SubIDGetPropertyDataReply SubID = 0x35

	// SubIDDiscoveryInquiry announces the sender and asks devices to reply.
	SubIDDiscoveryInquiry SubID = 0x70

	// SubIDDiscoveryReply answers a discovery inquiry.
	SubIDDiscoveryReply SubID = 0x71

	// SubIDEndpointInquiry asks about an endpoint, e.g. its product
	// instance ID.
	SubIDEndpointInquiry SubID = 0x72

	// SubIDEndpointReply answers an endpoint inquiry.
	SubIDEndpointReply SubID = 0x73

	// SubIDAck acknowledges a received message.
	SubIDAck SubID = 0x7D

	// SubIDInvalidateMUID withdraws a previously announced MUID.
	SubIDInvalidateMUID SubID = 0x7E

	// SubIDNak reports a rejected or failed message.
	SubIDNak SubID = 0x7F
)

// String returns the sub-ID name.
func (s SubID) String() string {
	switch s {
	case SubIDProfileInquiry:
		return "PROFILE_INQUIRY"
	case SubIDProfileReply:
		return "PROFILE_REPLY"
	case SubIDPECapabilityInquiry:
		return "PE_CAPABILITY_INQUIRY"
	case SubIDPECapabilityReply:
		return "PE_CAPABILITY_REPLY"
	case SubIDGetPropertyData:
		return "GET_PROPERTY_DATA"
	case SubIDGetPropertyDataReply:
		return "GET_PROPERTY_DATA_REPLY"
	case SubIDDiscoveryInquiry:
		return "DISCOVERY_INQUIRY"
	case SubIDDiscoveryReply:
		return "DISCOVERY_REPLY"
	case SubIDEndpointInquiry:
		return "ENDPOINT_INQUIRY"
	case SubIDEndpointReply:
		return "ENDPOINT_REPLY"
	case SubIDAck:
		return "ACK"
	case SubIDInvalidateMUID:
		return "INVALIDATE_MUID"
	case SubIDNak:
		return "NAK"
	default:
		return fmt.Sprintf("UNKNOWN(%#02x)", uint8(s))
	}
}

// Message is the decoded form of a MIDI-CI payload. Decode returns one of
// the concrete message structs in this package; receivers dispatch with a
// type switch.
type Message interface {
	// SubID identifies the message kind.
	SubID() SubID

	// Source is the sending device's MUID.
	Source() MUID

	// Destination is the addressed MUID, possibly broadcast.
	Destination() MUID
}

// DiscoveryInquiry announces the sender's identity to all devices and asks
// them to reply. Destination is always broadcast.
type DiscoveryInquiry struct {
	SourceMUID   MUID
	Device       DeviceDetails
	Capabilities Capability
	MaxSysExSize uint32
	OutputPathID uint8
}

// SubID implements Message.
func (*DiscoveryInquiry) SubID() SubID { return SubIDDiscoveryInquiry }

// Source implements Message.
func (m *DiscoveryInquiry) Source() MUID { return m.SourceMUID }

// Destination implements Message. Discovery inquiries are broadcast.
func (*DiscoveryInquiry) Destination() MUID { return BroadcastMUID }

// Validate checks field ranges before encoding.
func (m *DiscoveryInquiry) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if err := m.Device.Validate(); err != nil {
		return err
	}
	if !sevenBitClean(uint64(m.MaxSysExSize), 4) {
		return fmt.Errorf("%w: max sysex size %#x", ErrNotSevenBit, m.MaxSysExSize)
	}
	if m.OutputPathID > 0x7F {
		return fmt.Errorf("%w: output path ID %#x", ErrNotSevenBit, m.OutputPathID)
	}
	return nil
}

// DiscoveryReply answers a discovery inquiry with the responder's identity.
type DiscoveryReply struct {
	SourceMUID      MUID
	DestinationMUID MUID
	Device          DeviceDetails
	Capabilities    Capability
	MaxSysExSize    uint32
	OutputPathID    uint8
	FunctionBlock   uint8
}

// SubID implements Message.
func (*DiscoveryReply) SubID() SubID { return SubIDDiscoveryReply }

// Source implements Message.
func (m *DiscoveryReply) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *DiscoveryReply) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *DiscoveryReply) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.DestinationMUID.Valid() && !m.DestinationMUID.IsBroadcast() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, m.DestinationMUID)
	}
	if err := m.Device.Validate(); err != nil {
		return err
	}
	if !sevenBitClean(uint64(m.MaxSysExSize), 4) {
		return fmt.Errorf("%w: max sysex size %#x", ErrNotSevenBit, m.MaxSysExSize)
	}
	if m.OutputPathID > 0x7F || m.FunctionBlock > 0x7F {
		return fmt.Errorf("%w: path/function block", ErrNotSevenBit)
	}
	return nil
}

// Endpoint inquiry status values.
const (
	// EndpointStatusProductInstanceID requests the product instance ID,
	// a 7-bit ASCII serial string.
	EndpointStatusProductInstanceID uint8 = 0x00
)

// EndpointInquiry asks a device about one endpoint attribute.
type EndpointInquiry struct {
	SourceMUID      MUID
	DestinationMUID MUID
	Status          uint8
}

// SubID implements Message.
func (*EndpointInquiry) SubID() SubID { return SubIDEndpointInquiry }

// Source implements Message.
func (m *EndpointInquiry) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *EndpointInquiry) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *EndpointInquiry) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.DestinationMUID.Valid() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, m.DestinationMUID)
	}
	if m.Status > 0x7F {
		return fmt.Errorf("%w: status %#x", ErrNotSevenBit, m.Status)
	}
	return nil
}

// EndpointReply answers an endpoint inquiry. For status 0 the data is the
// product instance ID as 7-bit ASCII.
type EndpointReply struct {
	SourceMUID      MUID
	DestinationMUID MUID
	Status          uint8
	Data            []byte
}

// SubID implements Message.
func (*EndpointReply) SubID() SubID { return SubIDEndpointReply }

// Source implements Message.
func (m *EndpointReply) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *EndpointReply) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *EndpointReply) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.DestinationMUID.Valid() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, m.DestinationMUID)
	}
	if m.Status > 0x7F {
		return fmt.Errorf("%w: status %#x", ErrNotSevenBit, m.Status)
	}
	if len(m.Data) > max14 {
		return fmt.Errorf("%w: endpoint data %d bytes", ErrDataTooLarge, len(m.Data))
	}
	if !sevenBitCleanBytes(m.Data) {
		return fmt.Errorf("%w: endpoint data", ErrNotSevenBit)
	}
	return nil
}

// InvalidateMUID withdraws a MUID, e.g. after a collision or before
// shutdown. Destination is always broadcast; TargetMUID names the MUID
// being withdrawn.
type InvalidateMUID struct {
	SourceMUID MUID
	TargetMUID MUID
}

// SubID implements Message.
func (*InvalidateMUID) SubID() SubID { return SubIDInvalidateMUID }

// Source implements Message.
func (m *InvalidateMUID) Source() MUID { return m.SourceMUID }

// Destination implements Message. Invalidations are broadcast.
func (*InvalidateMUID) Destination() MUID { return BroadcastMUID }

// Validate checks field ranges before encoding.
func (m *InvalidateMUID) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.TargetMUID.Valid() {
		return fmt.Errorf("%w: target MUID %s", ErrInvalidMUID, m.TargetMUID)
	}
	return nil
}

// Ack acknowledges a received message.
type Ack struct {
	SourceMUID      MUID
	DestinationMUID MUID
	OriginalSubID   SubID
	StatusCode      uint8
	StatusData      uint8
	Details         [5]byte
	Text            []byte
}

// SubID implements Message.
func (*Ack) SubID() SubID { return SubIDAck }

// Source implements Message.
func (m *Ack) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *Ack) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *Ack) Validate() error {
	return validateAckFields(m.SourceMUID, m.DestinationMUID, m.StatusCode, m.StatusData, m.Details, m.Text)
}

// Nak reports a rejected or failed message.
type Nak struct {
	SourceMUID      MUID
	DestinationMUID MUID
	OriginalSubID   SubID
	StatusCode      uint8
	StatusData      uint8
	Details         [5]byte
	Text            []byte
}

// SubID implements Message.
func (*Nak) SubID() SubID { return SubIDNak }

// Source implements Message.
func (m *Nak) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *Nak) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *Nak) Validate() error {
	return validateAckFields(m.SourceMUID, m.DestinationMUID, m.StatusCode, m.StatusData, m.Details, m.Text)
}

func validateAckFields(source, destination MUID, code, data uint8, details [5]byte, text []byte) error {
	if !source.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, source)
	}
	if !destination.Valid() && !destination.IsBroadcast() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, destination)
	}
	if code > 0x7F || data > 0x7F {
		return fmt.Errorf("%w: status fields", ErrNotSevenBit)
	}
	if !sevenBitCleanBytes(details[:]) {
		return fmt.Errorf("%w: details", ErrNotSevenBit)
	}
	if len(text) > max14 {
		return fmt.Errorf("%w: text %d bytes", ErrDataTooLarge, len(text))
	}
	if !sevenBitCleanBytes(text) {
		return fmt.Errorf("%w: text", ErrNotSevenBit)
	}
	return nil
}

// ProfileInquiry asks a device for its enabled and disabled profiles.
type ProfileInquiry struct {
	SourceMUID      MUID
	DestinationMUID MUID
}

// SubID implements Message.
func (*ProfileInquiry) SubID() SubID { return SubIDProfileInquiry }

// Source implements Message.
func (m *ProfileInquiry) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *ProfileInquiry) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *ProfileInquiry) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.DestinationMUID.Valid() && !m.DestinationMUID.IsBroadcast() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, m.DestinationMUID)
	}
	return nil
}

// ProfileReply lists the responder's enabled and disabled profiles.
type ProfileReply struct {
	SourceMUID      MUID
	DestinationMUID MUID
	Enabled         []ProfileID
	Disabled        []ProfileID
}

// SubID implements Message.
func (*ProfileReply) SubID() SubID { return SubIDProfileReply }

// Source implements Message.
func (m *ProfileReply) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *ProfileReply) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *ProfileReply) Validate() error {
	if !m.SourceMUID.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, m.SourceMUID)
	}
	if !m.DestinationMUID.Valid() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, m.DestinationMUID)
	}
	if len(m.Enabled) > max14 || len(m.Disabled) > max14 {
		return fmt.Errorf("%w: profile count", ErrDataTooLarge)
	}
	for _, p := range m.Enabled {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, p := range m.Disabled {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PECapabilityInquiry asks for property exchange capabilities.
type PECapabilityInquiry struct {
	SourceMUID           MUID
	DestinationMUID      MUID
	SimultaneousRequests uint8
	MajorVersion         uint8
	MinorVersion         uint8
}

// SubID implements Message.
func (*PECapabilityInquiry) SubID() SubID { return SubIDPECapabilityInquiry }

// Source implements Message.
func (m *PECapabilityInquiry) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *PECapabilityInquiry) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *PECapabilityInquiry) Validate() error {
	return validatePECapability(m.SourceMUID, m.DestinationMUID, m.SimultaneousRequests, m.MajorVersion, m.MinorVersion)
}

// PECapabilityReply answers a property exchange capability inquiry.
type PECapabilityReply struct {
	SourceMUID           MUID
	DestinationMUID      MUID
	SimultaneousRequests uint8
	MajorVersion         uint8
	MinorVersion         uint8
}

// SubID implements Message.
func (*PECapabilityReply) SubID() SubID { return SubIDPECapabilityReply }

// Source implements Message.
func (m *PECapabilityReply) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *PECapabilityReply) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *PECapabilityReply) Validate() error {
	return validatePECapability(m.SourceMUID, m.DestinationMUID, m.SimultaneousRequests, m.MajorVersion, m.MinorVersion)
}

func validatePECapability(source, destination MUID, simultaneous, major, minor uint8) error {
	if !source.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, source)
	}
	if !destination.Valid() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, destination)
	}
	if simultaneous > 0x7F || major > 0x7F || minor > 0x7F {
		return fmt.Errorf("%w: capability fields", ErrNotSevenBit)
	}
	return nil
}

// GetPropertyData requests a named property. The header is a JSON object,
// conventionally {"resource":"<name>"}; the body is empty for requests.
type GetPropertyData struct {
	SourceMUID      MUID
	DestinationMUID MUID
	RequestID       uint8
	HeaderData      []byte
	Body            []byte
}

// SubID implements Message.
func (*GetPropertyData) SubID() SubID { return SubIDGetPropertyData }

// Source implements Message.
func (m *GetPropertyData) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *GetPropertyData) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *GetPropertyData) Validate() error {
	return validatePropertyFields(m.SourceMUID, m.DestinationMUID, m.RequestID, m.HeaderData, m.Body)
}

// GetPropertyDataReply carries the requested property data. The body is
// the property's JSON payload in a single chunk.
type GetPropertyDataReply struct {
	SourceMUID      MUID
	DestinationMUID MUID
	RequestID       uint8
	HeaderData      []byte
	Body            []byte
}

// SubID implements Message.
func (*GetPropertyDataReply) SubID() SubID { return SubIDGetPropertyDataReply }

// Source implements Message.
func (m *GetPropertyDataReply) Source() MUID { return m.SourceMUID }

// Destination implements Message.
func (m *GetPropertyDataReply) Destination() MUID { return m.DestinationMUID }

// Validate checks field ranges before encoding.
func (m *GetPropertyDataReply) Validate() error {
	return validatePropertyFields(m.SourceMUID, m.DestinationMUID, m.RequestID, m.HeaderData, m.Body)
}

func validatePropertyFields(source, destination MUID, requestID uint8, header, body []byte) error {
	if !source.Valid() {
		return fmt.Errorf("%w: source MUID %s", ErrInvalidMUID, source)
	}
	if !destination.Valid() {
		return fmt.Errorf("%w: destination MUID %s", ErrInvalidMUID, destination)
	}
	if requestID > 0x7F {
		return fmt.Errorf("%w: request ID %#x", ErrNotSevenBit, requestID)
	}
	if len(header) > max14 {
		return fmt.Errorf("%w: header %d bytes", ErrDataTooLarge, len(header))
	}
	if len(body) > max14 {
		return fmt.Errorf("%w: body %d bytes", ErrDataTooLarge, len(body))
	}
	if !sevenBitCleanBytes(header) {
		return fmt.Errorf("%w: property header", ErrNotSevenBit)
	}
	if !sevenBitCleanBytes(body) {
		return fmt.Errorf("%w: property body", ErrNotSevenBit)
	}
	return nil
}
