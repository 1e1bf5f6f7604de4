package session

import "github.com/ump-ci/umpci-go/pkg/ci"

// Placeholder display strings for freshly discovered devices. Discovery
// replies carry numeric IDs only; readable names would come from a later
// DeviceInfo property exchange, which this session does not perform.
const (
	placeholderName         = "MIDI-CI Device"
	placeholderManufacturer = "Unknown"
	placeholderModel        = "MIDI-CI Device"
	placeholderVersion      = "1.0"
)

// RemoteDevice is one discovered MIDI-CI peer. Session accessors return
// copies; mutating a returned value has no effect on the registry.
type RemoteDevice struct {
	// MUID identifies the peer on the wire.
	MUID ci.MUID

	// Name, Manufacturer, Model and Version are display strings,
	// placeholders until a richer exchange fills them in.
	Name         string
	Manufacturer string
	Model        string
	Version      string

	// Details is the numeric identity from the discovery reply.
	Details ci.DeviceDetails

	// Capabilities is the category support bitmap from the discovery reply.
	Capabilities ci.Capability

	// MaxSysExSize is the largest SysEx payload the peer receives.
	MaxSysExSize uint32

	// EndpointReady reports whether the peer has answered the endpoint
	// inquiry. Only ready devices are eligible for property exchange.
	EndpointReady bool

	// ProductInstanceID is the peer's serial string from its endpoint
	// reply, empty until one arrives.
	ProductInstanceID string

	// Profiles lists the peer's enabled profiles from its profile reply.
	Profiles []ci.ProfileID

	// SimultaneousRequests is the peer's property exchange concurrency
	// from its PE capability reply, zero until one arrives.
	SimultaneousRequests uint8
}

// DisplayName renders the device for user interfaces.
func (d RemoteDevice) DisplayName() string {
	return d.Model + " (" + d.Manufacturer + ")"
}

// newRemoteDevice builds the registry entry for a first discovery reply.
func newRemoteDevice(m *ci.DiscoveryReply) *RemoteDevice {
	return &RemoteDevice{
		MUID:         m.SourceMUID,
		Name:         placeholderName,
		Manufacturer: placeholderManufacturer,
		Model:        placeholderModel,
		Version:      placeholderVersion,
		Details:      m.Device,
		Capabilities: m.Capabilities,
		MaxSysExSize: m.MaxSysExSize,
	}
}

// clone returns a copy safe to hand out beyond the session lock.
func (d *RemoteDevice) clone() RemoteDevice {
	out := *d
	if d.Profiles != nil {
		out.Profiles = make([]ci.ProfileID, len(d.Profiles))
		copy(out.Profiles, d.Profiles)
	}
	return out
}
