package ci

import (
	"errors"
	"fmt"
)

// Wire framing constants.
const (
	// UniversalSysExNonRealTime opens every MIDI-CI payload.
	UniversalSysExNonRealTime = 0x7E

	// SubIDMIDICI is the sub-ID#1 byte marking a payload as MIDI-CI.
	SubIDMIDICI = 0x0D

	// CIVersion is the MIDI-CI message version written by encoders.
	// Decoders accept any version byte for forward compatibility.
	CIVersion = 0x02

	// DeviceIDFunctionBlock addresses the whole function block / MIDI port.
	DeviceIDFunctionBlock = 0x7F

	// commonHeaderSize is the size of the common MIDI-CI header.
	commonHeaderSize = 13

	// max14 is the largest value a 14-bit length field can carry.
	max14 = 0x3FFF
)

// Codec errors.
var (
	// ErrTruncated indicates the payload is shorter than its layout requires.
	ErrTruncated = errors.New("truncated MIDI-CI payload")

	// ErrNotMIDICI indicates the payload does not carry the Universal
	// Non-Real-Time / MIDI-CI prefix.
	ErrNotMIDICI = errors.New("not a MIDI-CI payload")

	// ErrUnknownSubID indicates an unrecognized sub-ID#2 value.
	ErrUnknownSubID = errors.New("unknown MIDI-CI sub-ID")

	// ErrSubIDMismatch indicates a payload decoded as the wrong message kind.
	ErrSubIDMismatch = errors.New("sub-ID mismatch")

	// ErrInvalidMUID indicates a MUID outside the 28-bit container.
	ErrInvalidMUID = errors.New("invalid MUID")

	// ErrNotSevenBit indicates a value that cannot survive 7-bit encoding.
	ErrNotSevenBit = errors.New("value not 7-bit clean")

	// ErrDataTooLarge indicates variable data exceeding a 14-bit length field.
	ErrDataTooLarge = errors.New("data too large")

	// ErrMultiChunk indicates a property payload split across chunks,
	// which this codec does not support.
	ErrMultiChunk = errors.New("multi-chunk property payload not supported")
)

// put14 writes a 14-bit value packed 7 bits per byte, LSB first.
func put14(dst []byte, v int) {
	dst[0] = byte(v) & 0x7F
	dst[1] = byte(v>>7) & 0x7F
}

// get14 reads a 14-bit value packed 7 bits per byte, LSB first.
func get14(data []byte) int {
	return int(data[0]&0x7F) | int(data[1]&0x7F)<<7
}

// IsMIDICI reports whether a SysEx payload (without 0xF0/0xF7 framing)
// carries the MIDI-CI prefix. Payloads failing this check belong to other
// SysEx traffic and are not an error.
func IsMIDICI(payload []byte) bool {
	return len(payload) >= commonHeaderSize &&
		payload[0] == UniversalSysExNonRealTime &&
		payload[2] == SubIDMIDICI
}

// PeekSubID returns the payload's sub-ID#2 without decoding the body.
func PeekSubID(payload []byte) (SubID, error) {
	if len(payload) < commonHeaderSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrTruncated, len(payload))
	}
	if !IsMIDICI(payload) {
		return 0, ErrNotMIDICI
	}
	return SubID(payload[3]), nil
}

// header is the decoded common header.
type header struct {
	deviceID    uint8
	subID       SubID
	version     uint8
	source      MUID
	destination MUID
}

// decodeHeader validates the MIDI-CI prefix and reads the common header.
func decodeHeader(payload []byte, want SubID) (header, error) {
	var h header
	if len(payload) < commonHeaderSize {
		return h, fmt.Errorf("%w: %d bytes", ErrTruncated, len(payload))
	}
	if !IsMIDICI(payload) {
		return h, ErrNotMIDICI
	}
	h.deviceID = payload[1]
	h.subID = SubID(payload[3])
	h.version = payload[4]
	h.source = muidAt(payload[5:9])
	h.destination = muidAt(payload[9:13])
	if h.subID != want {
		return h, fmt.Errorf("%w: got %s, want %s", ErrSubIDMismatch, h.subID, want)
	}
	return h, nil
}

// encodeHeader writes the common header into the first 13 bytes of buf.
func encodeHeader(buf []byte, subID SubID, source, destination MUID) {
	buf[0] = UniversalSysExNonRealTime
	buf[1] = DeviceIDFunctionBlock
	buf[2] = SubIDMIDICI
	buf[3] = byte(subID)
	buf[4] = CIVersion
	putMUID(buf[5:9], source)
	putMUID(buf[9:13], destination)
}

// putDeviceDetails writes the numeric identity fields (11 bytes).
func putDeviceDetails(buf []byte, d DeviceDetails) {
	buf[0] = byte(d.Manufacturer)
	buf[1] = byte(d.Manufacturer >> 8)
	buf[2] = byte(d.Manufacturer >> 16)
	buf[3] = byte(d.Family)
	buf[4] = byte(d.Family >> 8)
	buf[5] = byte(d.Model)
	buf[6] = byte(d.Model >> 8)
	buf[7] = byte(d.Version)
	buf[8] = byte(d.Version >> 8)
	buf[9] = byte(d.Version >> 16)
	buf[10] = byte(d.Version >> 24)
}

// deviceDetailsAt reads the numeric identity fields (11 bytes).
func deviceDetailsAt(data []byte) DeviceDetails {
	return DeviceDetails{
		Manufacturer: uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16,
		Family:       uint16(data[3]) | uint16(data[4])<<8,
		Model:        uint16(data[5]) | uint16(data[6])<<8,
		Version:      uint32(data[7]) | uint32(data[8])<<8 | uint32(data[9])<<16 | uint32(data[10])<<24,
	}
}

// put28 writes a 7-bit-clean uint32, LSB first.
func put28(dst []byte, v uint32) {
	dst[0] = byte(v) & 0x7F
	dst[1] = byte(v>>8) & 0x7F
	dst[2] = byte(v>>16) & 0x7F
	dst[3] = byte(v>>24) & 0x7F
}

// uint28At reads a 7-bit-clean uint32, LSB first.
func uint28At(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
}

const (
	discoveryInquirySize = commonHeaderSize + 11 + 1 + 4 + 1
	discoveryReplySize   = discoveryInquirySize + 1
)

// EncodeDiscoveryInquiry encodes a discovery inquiry payload.
func EncodeDiscoveryInquiry(m *DiscoveryInquiry) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discovery inquiry: %w", err)
	}
	buf := make([]byte, discoveryInquirySize)
	encodeHeader(buf, SubIDDiscoveryInquiry, m.SourceMUID, BroadcastMUID)
	putDeviceDetails(buf[13:], m.Device)
	buf[24] = byte(m.Capabilities)
	put28(buf[25:], m.MaxSysExSize)
	buf[29] = m.OutputPathID
	return buf, nil
}

// DecodeDiscoveryInquiry decodes a discovery inquiry payload.
func DecodeDiscoveryInquiry(payload []byte) (*DiscoveryInquiry, error) {
	h, err := decodeHeader(payload, SubIDDiscoveryInquiry)
	if err != nil {
		return nil, err
	}
	if len(payload) < discoveryInquirySize {
		return nil, fmt.Errorf("%w: discovery inquiry %d bytes", ErrTruncated, len(payload))
	}
	return &DiscoveryInquiry{
		SourceMUID:   h.source,
		Device:       deviceDetailsAt(payload[13:]),
		Capabilities: Capability(payload[24]),
		MaxSysExSize: uint28At(payload[25:]),
		OutputPathID: payload[29],
	}, nil
}

// EncodeDiscoveryReply encodes a discovery reply payload.
func EncodeDiscoveryReply(m *DiscoveryReply) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discovery reply: %w", err)
	}
	buf := make([]byte, discoveryReplySize)
	encodeHeader(buf, SubIDDiscoveryReply, m.SourceMUID, m.DestinationMUID)
	putDeviceDetails(buf[13:], m.Device)
	buf[24] = byte(m.Capabilities)
	put28(buf[25:], m.MaxSysExSize)
	buf[29] = m.OutputPathID
	buf[30] = m.FunctionBlock
	return buf, nil
}

// DecodeDiscoveryReply decodes a discovery reply payload.
func DecodeDiscoveryReply(payload []byte) (*DiscoveryReply, error) {
	h, err := decodeHeader(payload, SubIDDiscoveryReply)
	if err != nil {
		return nil, err
	}
	if len(payload) < discoveryReplySize {
		return nil, fmt.Errorf("%w: discovery reply %d bytes", ErrTruncated, len(payload))
	}
	return &DiscoveryReply{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		Device:          deviceDetailsAt(payload[13:]),
		Capabilities:    Capability(payload[24]),
		MaxSysExSize:    uint28At(payload[25:]),
		OutputPathID:    payload[29],
		FunctionBlock:   payload[30],
	}, nil
}

// EncodeEndpointInquiry encodes an endpoint inquiry payload.
func EncodeEndpointInquiry(m *EndpointInquiry) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint inquiry: %w", err)
	}
	buf := make([]byte, commonHeaderSize+1)
	encodeHeader(buf, SubIDEndpointInquiry, m.SourceMUID, m.DestinationMUID)
	buf[13] = m.Status
	return buf, nil
}

// DecodeEndpointInquiry decodes an endpoint inquiry payload.
func DecodeEndpointInquiry(payload []byte) (*EndpointInquiry, error) {
	h, err := decodeHeader(payload, SubIDEndpointInquiry)
	if err != nil {
		return nil, err
	}
	if len(payload) < commonHeaderSize+1 {
		return nil, fmt.Errorf("%w: endpoint inquiry %d bytes", ErrTruncated, len(payload))
	}
	return &EndpointInquiry{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		Status:          payload[13],
	}, nil
}

// EncodeEndpointReply encodes an endpoint reply payload.
func EncodeEndpointReply(m *EndpointReply) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint reply: %w", err)
	}
	buf := make([]byte, commonHeaderSize+3+len(m.Data))
	encodeHeader(buf, SubIDEndpointReply, m.SourceMUID, m.DestinationMUID)
	buf[13] = m.Status
	put14(buf[14:], len(m.Data))
	copy(buf[16:], m.Data)
	return buf, nil
}

// DecodeEndpointReply decodes an endpoint reply payload.
func DecodeEndpointReply(payload []byte) (*EndpointReply, error) {
	h, err := decodeHeader(payload, SubIDEndpointReply)
	if err != nil {
		return nil, err
	}
	if len(payload) < commonHeaderSize+3 {
		return nil, fmt.Errorf("%w: endpoint reply %d bytes", ErrTruncated, len(payload))
	}
	n := get14(payload[14:])
	if len(payload) < commonHeaderSize+3+n {
		return nil, fmt.Errorf("%w: endpoint reply data", ErrTruncated)
	}
	data := make([]byte, n)
	copy(data, payload[16:16+n])
	return &EndpointReply{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		Status:          payload[13],
		Data:            data,
	}, nil
}

// EncodeInvalidateMUID encodes an invalidate MUID payload.
func EncodeInvalidateMUID(m *InvalidateMUID) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invalidate MUID: %w", err)
	}
	buf := make([]byte, commonHeaderSize+MUIDSize)
	encodeHeader(buf, SubIDInvalidateMUID, m.SourceMUID, BroadcastMUID)
	putMUID(buf[13:], m.TargetMUID)
	return buf, nil
}

// DecodeInvalidateMUID decodes an invalidate MUID payload.
func DecodeInvalidateMUID(payload []byte) (*InvalidateMUID, error) {
	h, err := decodeHeader(payload, SubIDInvalidateMUID)
	if err != nil {
		return nil, err
	}
	if len(payload) < commonHeaderSize+MUIDSize {
		return nil, fmt.Errorf("%w: invalidate MUID %d bytes", ErrTruncated, len(payload))
	}
	return &InvalidateMUID{
		SourceMUID: h.source,
		TargetMUID: muidAt(payload[13:17]),
	}, nil
}

// encodeAckNak encodes the shared ACK/NAK layout.
func encodeAckNak(subID SubID, source, destination MUID, original SubID, code, data uint8, details [5]byte, text []byte) []byte {
	buf := make([]byte, commonHeaderSize+10+len(text))
	encodeHeader(buf, subID, source, destination)
	buf[13] = byte(original)
	buf[14] = code
	buf[15] = data
	copy(buf[16:21], details[:])
	put14(buf[21:], len(text))
	copy(buf[23:], text)
	return buf
}

// decodeAckNak decodes the shared ACK/NAK layout.
func decodeAckNak(payload []byte) (original SubID, code, data uint8, details [5]byte, text []byte, err error) {
	if len(payload) < commonHeaderSize+10 {
		err = fmt.Errorf("%w: ack/nak %d bytes", ErrTruncated, len(payload))
		return
	}
	original = SubID(payload[13])
	code = payload[14]
	data = payload[15]
	copy(details[:], payload[16:21])
	n := get14(payload[21:])
	if len(payload) < commonHeaderSize+10+n {
		err = fmt.Errorf("%w: ack/nak text", ErrTruncated)
		return
	}
	text = make([]byte, n)
	copy(text, payload[23:23+n])
	return
}

// EncodeAck encodes an ACK payload.
func EncodeAck(m *Ack) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ack: %w", err)
	}
	return encodeAckNak(SubIDAck, m.SourceMUID, m.DestinationMUID, m.OriginalSubID, m.StatusCode, m.StatusData, m.Details, m.Text), nil
}

// DecodeAck decodes an ACK payload.
func DecodeAck(payload []byte) (*Ack, error) {
	h, err := decodeHeader(payload, SubIDAck)
	if err != nil {
		return nil, err
	}
	original, code, data, details, text, err := decodeAckNak(payload)
	if err != nil {
		return nil, err
	}
	return &Ack{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		OriginalSubID:   original,
		StatusCode:      code,
		StatusData:      data,
		Details:         details,
		Text:            text,
	}, nil
}

// EncodeNak encodes a NAK payload.
func EncodeNak(m *Nak) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nak: %w", err)
	}
	return encodeAckNak(SubIDNak, m.SourceMUID, m.DestinationMUID, m.OriginalSubID, m.StatusCode, m.StatusData, m.Details, m.Text), nil
}

// DecodeNak decodes a NAK payload.
func DecodeNak(payload []byte) (*Nak, error) {
	h, err := decodeHeader(payload, SubIDNak)
	if err != nil {
		return nil, err
	}
	original, code, data, details, text, err := decodeAckNak(payload)
	if err != nil {
		return nil, err
	}
	return &Nak{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		OriginalSubID:   original,
		StatusCode:      code,
		StatusData:      data,
		Details:         details,
		Text:            text,
	}, nil
}

// EncodeProfileInquiry encodes a profile inquiry payload.
func EncodeProfileInquiry(m *ProfileInquiry) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile inquiry: %w", err)
	}
	buf := make([]byte, commonHeaderSize)
	encodeHeader(buf, SubIDProfileInquiry, m.SourceMUID, m.DestinationMUID)
	return buf, nil
}

// DecodeProfileInquiry decodes a profile inquiry payload.
func DecodeProfileInquiry(payload []byte) (*ProfileInquiry, error) {
	h, err := decodeHeader(payload, SubIDProfileInquiry)
	if err != nil {
		return nil, err
	}
	return &ProfileInquiry{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
	}, nil
}

// EncodeProfileReply encodes a profile reply payload.
func EncodeProfileReply(m *ProfileReply) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile reply: %w", err)
	}
	size := commonHeaderSize + 2 + 5*len(m.Enabled) + 2 + 5*len(m.Disabled)
	buf := make([]byte, size)
	encodeHeader(buf, SubIDProfileReply, m.SourceMUID, m.DestinationMUID)

	off := commonHeaderSize
	put14(buf[off:], len(m.Enabled))
	off += 2
	for _, p := range m.Enabled {
		copy(buf[off:], p[:])
		off += 5
	}
	put14(buf[off:], len(m.Disabled))
	off += 2
	for _, p := range m.Disabled {
		copy(buf[off:], p[:])
		off += 5
	}
	return buf, nil
}

// DecodeProfileReply decodes a profile reply payload.
func DecodeProfileReply(payload []byte) (*ProfileReply, error) {
	h, err := decodeHeader(payload, SubIDProfileReply)
	if err != nil {
		return nil, err
	}

	m := &ProfileReply{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
	}
	off := commonHeaderSize
	for i := 0; i < 2; i++ {
		if len(payload) < off+2 {
			return nil, fmt.Errorf("%w: profile reply count", ErrTruncated)
		}
		n := get14(payload[off:])
		off += 2
		if len(payload) < off+5*n {
			return nil, fmt.Errorf("%w: profile reply IDs", ErrTruncated)
		}
		ids := make([]ProfileID, n)
		for j := range ids {
			copy(ids[j][:], payload[off:off+5])
			off += 5
		}
		if i == 0 {
			m.Enabled = ids
		} else {
			m.Disabled = ids
		}
	}
	return m, nil
}

// encodePECapability encodes the shared PE capability layout.
func encodePECapability(subID SubID, source, destination MUID, simultaneous, major, minor uint8) []byte {
	buf := make([]byte, commonHeaderSize+3)
	encodeHeader(buf, subID, source, destination)
	buf[13] = simultaneous
	buf[14] = major
	buf[15] = minor
	return buf
}

// EncodePECapabilityInquiry encodes a PE capability inquiry payload.
func EncodePECapabilityInquiry(m *PECapabilityInquiry) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PE capability inquiry: %w", err)
	}
	return encodePECapability(SubIDPECapabilityInquiry, m.SourceMUID, m.DestinationMUID, m.SimultaneousRequests, m.MajorVersion, m.MinorVersion), nil
}

// DecodePECapabilityInquiry decodes a PE capability inquiry payload.
func DecodePECapabilityInquiry(payload []byte) (*PECapabilityInquiry, error) {
	h, err := decodeHeader(payload, SubIDPECapabilityInquiry)
	if err != nil {
		return nil, err
	}
	if len(payload) < commonHeaderSize+3 {
		return nil, fmt.Errorf("%w: PE capability inquiry %d bytes", ErrTruncated, len(payload))
	}
	return &PECapabilityInquiry{
		SourceMUID:           h.source,
		DestinationMUID:      h.destination,
		SimultaneousRequests: payload[13],
		MajorVersion:         payload[14],
		MinorVersion:         payload[15],
	}, nil
}

// EncodePECapabilityReply encodes a PE capability reply payload.
func EncodePECapabilityReply(m *PECapabilityReply) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PE capability reply: %w", err)
	}
	return encodePECapability(SubIDPECapabilityReply, m.SourceMUID, m.DestinationMUID, m.SimultaneousRequests, m.MajorVersion, m.MinorVersion), nil
}

// DecodePECapabilityReply decodes a PE capability reply payload.
func DecodePECapabilityReply(payload []byte) (*PECapabilityReply, error) {
	h, err := decodeHeader(payload, SubIDPECapabilityReply)
	if err != nil {
		return nil, err
	}
	if len(payload) < commonHeaderSize+3 {
		return nil, fmt.Errorf("%w: PE capability reply %d bytes", ErrTruncated, len(payload))
	}
	return &PECapabilityReply{
		SourceMUID:           h.source,
		DestinationMUID:      h.destination,
		SimultaneousRequests: payload[13],
		MajorVersion:         payload[14],
		MinorVersion:         payload[15],
	}, nil
}

// encodeProperty encodes the shared property exchange layout. Bodies are
// always written as a single chunk.
func encodeProperty(subID SubID, source, destination MUID, requestID uint8, headerData, body []byte) []byte {
	size := commonHeaderSize + 1 + 2 + len(headerData) + 2 + 2 + 2 + len(body)
	buf := make([]byte, size)
	encodeHeader(buf, subID, source, destination)

	off := commonHeaderSize
	buf[off] = requestID
	off++
	put14(buf[off:], len(headerData))
	off += 2
	copy(buf[off:], headerData)
	off += len(headerData)
	put14(buf[off:], 1) // number of chunks
	off += 2
	put14(buf[off:], 1) // chunk number
	off += 2
	put14(buf[off:], len(body))
	off += 2
	copy(buf[off:], body)
	return buf
}

// decodeProperty decodes the shared property exchange layout.
func decodeProperty(payload []byte) (requestID uint8, headerData, body []byte, err error) {
	off := commonHeaderSize
	if len(payload) < off+3 {
		err = fmt.Errorf("%w: property message %d bytes", ErrTruncated, len(payload))
		return
	}
	requestID = payload[off]
	off++
	hn := get14(payload[off:])
	off += 2
	if len(payload) < off+hn+6 {
		err = fmt.Errorf("%w: property header", ErrTruncated)
		return
	}
	headerData = make([]byte, hn)
	copy(headerData, payload[off:off+hn])
	off += hn

	numChunks := get14(payload[off:])
	off += 2
	chunkNum := get14(payload[off:])
	off += 2
	if numChunks != 1 || chunkNum != 1 {
		err = fmt.Errorf("%w: chunk %d of %d", ErrMultiChunk, chunkNum, numChunks)
		return
	}

	bn := get14(payload[off:])
	off += 2
	if len(payload) < off+bn {
		err = fmt.Errorf("%w: property body", ErrTruncated)
		return
	}
	body = make([]byte, bn)
	copy(body, payload[off:off+bn])
	return
}

// EncodeGetPropertyData encodes a get property data payload.
func EncodeGetPropertyData(m *GetPropertyData) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid get property data: %w", err)
	}
	return encodeProperty(SubIDGetPropertyData, m.SourceMUID, m.DestinationMUID, m.RequestID, m.HeaderData, m.Body), nil
}

// DecodeGetPropertyData decodes a get property data payload.
func DecodeGetPropertyData(payload []byte) (*GetPropertyData, error) {
	h, err := decodeHeader(payload, SubIDGetPropertyData)
	if err != nil {
		return nil, err
	}
	requestID, headerData, body, err := decodeProperty(payload)
	if err != nil {
		return nil, err
	}
	return &GetPropertyData{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		RequestID:       requestID,
		HeaderData:      headerData,
		Body:            body,
	}, nil
}

// EncodeGetPropertyDataReply encodes a get property data reply payload.
func EncodeGetPropertyDataReply(m *GetPropertyDataReply) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid get property data reply: %w", err)
	}
	return encodeProperty(SubIDGetPropertyDataReply, m.SourceMUID, m.DestinationMUID, m.RequestID, m.HeaderData, m.Body), nil
}

// DecodeGetPropertyDataReply decodes a get property data reply payload.
func DecodeGetPropertyDataReply(payload []byte) (*GetPropertyDataReply, error) {
	h, err := decodeHeader(payload, SubIDGetPropertyDataReply)
	if err != nil {
		return nil, err
	}
	requestID, headerData, body, err := decodeProperty(payload)
	if err != nil {
		return nil, err
	}
	return &GetPropertyDataReply{
		SourceMUID:      h.source,
		DestinationMUID: h.destination,
		RequestID:       requestID,
		HeaderData:      headerData,
		Body:            body,
	}, nil
}

// Encode encodes a message into a MIDI-CI payload (without SysEx framing
// bytes), dispatching on the concrete message type.
func Encode(m Message) ([]byte, error) {
	switch m := m.(type) {
	case *DiscoveryInquiry:
		return EncodeDiscoveryInquiry(m)
	case *DiscoveryReply:
		return EncodeDiscoveryReply(m)
	case *EndpointInquiry:
		return EncodeEndpointInquiry(m)
	case *EndpointReply:
		return EncodeEndpointReply(m)
	case *InvalidateMUID:
		return EncodeInvalidateMUID(m)
	case *Ack:
		return EncodeAck(m)
	case *Nak:
		return EncodeNak(m)
	case *ProfileInquiry:
		return EncodeProfileInquiry(m)
	case *ProfileReply:
		return EncodeProfileReply(m)
	case *PECapabilityInquiry:
		return EncodePECapabilityInquiry(m)
	case *PECapabilityReply:
		return EncodePECapabilityReply(m)
	case *GetPropertyData:
		return EncodeGetPropertyData(m)
	case *GetPropertyDataReply:
		return EncodeGetPropertyDataReply(m)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubID, m.SubID())
	}
}

// Decode decodes a complete MIDI-CI payload (without SysEx framing bytes)
// into its concrete message type. Payloads without the MIDI-CI prefix
// return ErrNotMIDICI; recognized prefixes with unknown sub-IDs return
// ErrUnknownSubID.
func Decode(payload []byte) (Message, error) {
	subID, err := PeekSubID(payload)
	if err != nil {
		return nil, err
	}
	switch subID {
	case SubIDDiscoveryInquiry:
		return DecodeDiscoveryInquiry(payload)
	case SubIDDiscoveryReply:
		return DecodeDiscoveryReply(payload)
	case SubIDEndpointInquiry:
		return DecodeEndpointInquiry(payload)
	case SubIDEndpointReply:
		return DecodeEndpointReply(payload)
	case SubIDInvalidateMUID:
		return DecodeInvalidateMUID(payload)
	case SubIDAck:
		return DecodeAck(payload)
	case SubIDNak:
		return DecodeNak(payload)
	case SubIDProfileInquiry:
		return DecodeProfileInquiry(payload)
	case SubIDProfileReply:
		return DecodeProfileReply(payload)
	case SubIDPECapabilityInquiry:
		return DecodePECapabilityInquiry(payload)
	case SubIDPECapabilityReply:
		return DecodePECapabilityReply(payload)
	case SubIDGetPropertyData:
		return DecodeGetPropertyData(payload)
	case SubIDGetPropertyDataReply:
		return DecodeGetPropertyDataReply(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubID, subID)
	}
}
