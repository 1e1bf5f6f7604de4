// Package connection tracks whether a usable MIDI connection exists.
//
// A connection is usable only when both transport directions are open: an
// input port delivering packets and an output port accepting them. The
// StateMonitor folds the two booleans into one connected/disconnected state
// and fires a callback exactly once per transition.
//
// # Edge triggering
//
// Evaluate is called on every port open, close, or device-selection change.
// Only a change in the combined state fires the callback:
//
//	Evaluate(true, true)   // fires connected
//	Evaluate(true, true)   // no-op, state unchanged
//	Evaluate(true, false)  // fires disconnected
//
// The transition to connected is where session-level discovery starts, and
// the transition to disconnected is where the discovered-device registry is
// cleared; both are wired through the callback by the owning component.
package connection
