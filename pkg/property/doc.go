// Package property implements the property exchange client side used by the
// keyboard: the two standard resources it consumes (AllCtrlList and
// ProgramList), their JSON payload forms, and a request tracker that
// de-duplicates in-flight requests and expires them after a timeout.
//
// # Request lifecycle
//
// Property exchange is asynchronous: a get-property-data request goes out
// and the reply arrives later on the receive path. The Tracker converts
// this into a poll-style query:
//
//	value, ok := tracker.ControlList(muid)
//	// ok: cached value returned
//	// !ok: no usable value yet; a request was issued unless one is
//	//      already outstanding. Poll again after properties-changed.
//
// At most one request per (MUID, resource) pair is outstanding at any time.
// Pending entries older than RequestTimeout are swept lazily on the next
// query, which bounds table growth under silent peers and permits a retry.
//
// A cached list that parsed successfully but is empty is treated as "not
// yet available": the next query issues a fresh request instead of
// returning it. Devices populate these resources asynchronously, so an
// early empty reply does not mean the resource will stay empty.
package property
