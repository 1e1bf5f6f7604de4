package citest

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/property"
	"github.com/ump-ci/umpci-go/pkg/transport"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// FakeDevice scripts the remote end of a loopback pair: it reassembles
// inbound SysEx7 packets, answers MIDI-CI inquiries with a configurable
// identity and property set, and queues every reply until Pump is called.
//
// Queuing is load-bearing. The loopback delivers synchronously on the
// sender's goroutine, and a reply sent from inside the packet callback
// would re-enter the caller's SysEx writer while its lock is held. Tests
// instead drive the exchange in deterministic rounds: send, then Pump
// until quiescent.
type FakeDevice struct {
	mu sync.Mutex

	tb   testing.TB
	port *transport.Loopback

	muid   ci.MUID
	serial string
	group  uint8

	// Controls and Programs are served for get-property-data requests.
	// Set them before the exchange reaches property polling.
	Controls []property.Control
	Programs []property.Program

	reassembler *ump.Reassembler
	queue       []ci.Message

	requests map[string]int
	notes    []ump.Packet
}

// NewFakeDevice wires a scripted device onto one side of a loopback pair.
func NewFakeDevice(tb testing.TB, port *transport.Loopback, muid ci.MUID, serial string) *FakeDevice {
	f := &FakeDevice{
		tb:          tb,
		port:        port,
		muid:        muid,
		serial:      serial,
		reassembler: ump.NewReassembler(),
		requests:    make(map[string]int),
	}
	port.OnPacket(f.handlePacket)
	return f
}

// MUID returns the scripted device's identity.
func (f *FakeDevice) MUID() ci.MUID {
	return f.muid
}

func (f *FakeDevice) handlePacket(p ump.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.MessageType() != ump.MessageTypeSysEx7 {
		f.notes = append(f.notes, p)
		return
	}
	stream, done := f.reassembler.Feed(p)
	if !done {
		return
	}
	payload := ump.StripSysExFraming(stream)
	if !ci.IsMIDICI(payload) {
		return
	}
	m, err := ci.Decode(payload)
	if err != nil {
		f.tb.Logf("fake device: decode failed: %v", err)
		return
	}
	f.group = p.Group()

	switch m := m.(type) {
	case *ci.DiscoveryInquiry:
		f.queue = append(f.queue, &ci.DiscoveryReply{
			SourceMUID:      f.muid,
			DestinationMUID: m.SourceMUID,
			Device:          ci.DeviceDetails{Manufacturer: 0x123456, Family: 0x0002, Model: 0x0003, Version: 0x00000001},
			Capabilities:    ci.CapabilityThreeP,
			MaxSysExSize:    ci.DefaultMaxSysExSize,
			OutputPathID:    m.OutputPathID,
		})
	case *ci.EndpointInquiry:
		f.queue = append(f.queue, &ci.EndpointReply{
			SourceMUID:      f.muid,
			DestinationMUID: m.SourceMUID,
			Status:          m.Status,
			Data:            []byte(f.serial),
		})
	case *ci.ProfileInquiry:
		f.queue = append(f.queue, &ci.ProfileReply{
			SourceMUID:      f.muid,
			DestinationMUID: m.SourceMUID,
			Enabled:         []ci.ProfileID{ci.GMLevel1Profile},
		})
	case *ci.PECapabilityInquiry:
		f.queue = append(f.queue, &ci.PECapabilityReply{
			SourceMUID:           f.muid,
			DestinationMUID:      m.SourceMUID,
			SimultaneousRequests: 1,
		})
	case *ci.GetPropertyData:
		f.answerPropertyLocked(m)
	}
}

func (f *FakeDevice) answerPropertyLocked(m *ci.GetPropertyData) {
	resource, err := property.ResourceForRequestID(m.RequestID)
	if err != nil {
		f.tb.Logf("fake device: %v", err)
		return
	}
	f.requests[resource]++

	var body []byte
	switch resource {
	case property.ResourceAllCtrlList:
		body = mustMarshal(f.tb, f.Controls)
	case property.ResourceProgramList:
		body = mustMarshal(f.tb, f.Programs)
	}
	f.queue = append(f.queue, &ci.GetPropertyDataReply{
		SourceMUID:      f.muid,
		DestinationMUID: m.SourceMUID,
		RequestID:       m.RequestID,
		HeaderData:      []byte(`{"status":200}`),
		Body:            body,
	})
}

// Pump transmits queued replies, including replies queued in response to
// the messages it sends, until the queue stays empty. Returns the number
// of messages sent.
func (f *FakeDevice) Pump() int {
	total := 0
	for {
		f.mu.Lock()
		queue := f.queue
		f.queue = nil
		group := f.group
		f.mu.Unlock()

		if len(queue) == 0 {
			return total
		}
		for _, m := range queue {
			payload, err := ci.Encode(m)
			if err != nil {
				f.tb.Fatalf("fake device: encode %s: %v", m.SubID(), err)
			}
			for _, p := range ump.FragmentSysEx7(group, payload) {
				if err := f.port.SendPacket(p); err != nil {
					f.tb.Fatalf("fake device: send packet: %v", err)
				}
			}
			total++
		}
	}
}

// RequestCount returns how many get-property-data requests arrived for the
// resource.
func (f *FakeDevice) RequestCount(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[resource]
}

// Notes returns the non-SysEx packets received, in arrival order.
func (f *FakeDevice) Notes() []ump.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ump.Packet, len(f.notes))
	copy(out, f.notes)
	return out
}

func mustMarshal(tb testing.TB, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal property body: %v", err)
	}
	return data
}
