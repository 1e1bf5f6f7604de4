// Package session implements the MIDI-CI device session: one local
// identity announced over SysEx and the registry of remote devices
// discovered through it.
//
// A DeviceSession transmits through a SysExSender (typically a
// transport.SysExWriter) and is fed complete SysEx payloads through
// HandleSysEx (typically from a ump.Reassembler). It plays both protocol
// roles: as initiator it broadcasts discovery, follows up with the
// configured auto-inquiries and records what peers answer; as responder
// it answers discovery, endpoint, profile, property-capability and
// property requests on the local identity's behalf.
//
// # Lifecycle
//
//	session, err := session.NewDeviceSession(session.DefaultConfig(), writer)
//	session.SetLogger(logger)          // before Initialize
//	session.OnDevicesChanged(refresh)  // before Initialize
//	err = session.Initialize(0)        // 0 generates a random MUID
//	err = session.SendDiscovery()
//
// Remote devices appear in Devices() once their discovery reply arrives
// and in ReadyDevices() once their endpoint reply arrives. Shutdown
// withdraws the local MUID and returns the session to the uninitialized
// state; Reset clears the registry but keeps the identity.
//
// # Concurrency
//
// All methods are safe for concurrent use. HandleSysEx may be called from
// a transport receive goroutine while queries and sends originate
// elsewhere. Callbacks are invoked outside the session lock, so they may
// call back into the session; accessors return snapshots, never internal
// references.
package session
