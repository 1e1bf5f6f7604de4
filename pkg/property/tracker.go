package property

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
)

// RequestTimeout is how long a pending request stays outstanding before it
// becomes eligible for retry. Expired entries are swept lazily on the next
// query rather than by a timer.
const RequestTimeout = 30 * time.Second

// Sender issues outbound get-property-data requests. Implemented by the
// session layer.
type Sender interface {
	// SendPropertyRequest sends a get-property-data request for the named
	// resource to the device.
	SendPropertyRequest(muid ci.MUID, resource string) error
}

// requestKey identifies one in-flight property request.
type requestKey struct {
	muid     ci.MUID
	resource string
}

// Tracker bridges the asynchronous property exchange reply stream to a
// poll-style query interface with at-most-one-outstanding-request-per-key
// semantics. Queries return the cached value when a usable one exists;
// otherwise they issue a request (unless one is already in flight) and
// return nothing, and the caller polls again after the properties-changed
// notification.
type Tracker struct {
	mu sync.Mutex

	sender Sender

	// In-flight requests by key, valued with their send time.
	pending map[requestKey]time.Time

	// Last successfully parsed payloads. An empty cached list counts as
	// "not yet available" and does not satisfy a query.
	controls map[ci.MUID][]Control
	programs map[ci.MUID][]Program

	// now is the pending-expiry clock; replaced in tests.
	now func() time.Time

	logger *slog.Logger

	onPropertiesChanged func(ci.MUID)
}

// NewTracker creates a tracker that issues requests through sender.
func NewTracker(sender Sender) *Tracker {
	return &Tracker{
		sender:   sender,
		pending:  make(map[requestKey]time.Time),
		controls: make(map[ci.MUID][]Control),
		programs: make(map[ci.MUID][]Program),
		now:      time.Now,
	}
}

// SetLogger sets the logger for parse failures and request errors.
func (t *Tracker) SetLogger(logger *slog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
}

// OnPropertiesChanged sets the callback invoked, with the device's MUID,
// whenever a reply updates that device's cached values.
func (t *Tracker) OnPropertiesChanged(fn func(ci.MUID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPropertiesChanged = fn
}

// ControlList returns the cached AllCtrlList entries for a device. When no
// usable value is cached it returns (nil, false) and, unless one is already
// outstanding, issues a request for the resource.
func (t *Tracker) ControlList(muid ci.MUID) ([]Control, bool) {
	t.mu.Lock()
	t.sweepExpiredLocked()

	key := requestKey{muid: muid, resource: ResourceAllCtrlList}
	if cached, ok := t.controls[muid]; ok && len(cached) > 0 {
		// The reply that filled the cache satisfied any outstanding request.
		delete(t.pending, key)
		out := make([]Control, len(cached))
		copy(out, cached)
		t.mu.Unlock()
		return out, true
	}
	if _, outstanding := t.pending[key]; outstanding {
		t.mu.Unlock()
		return nil, false
	}
	t.pending[key] = t.now()
	t.mu.Unlock()

	t.issue(key)
	return nil, false
}

// ProgramList returns the cached ProgramList entries for a device. When no
// usable value is cached it returns (nil, false) and, unless one is already
// outstanding, issues a request for the resource.
func (t *Tracker) ProgramList(muid ci.MUID) ([]Program, bool) {
	t.mu.Lock()
	t.sweepExpiredLocked()

	key := requestKey{muid: muid, resource: ResourceProgramList}
	if cached, ok := t.programs[muid]; ok && len(cached) > 0 {
		delete(t.pending, key)
		out := make([]Program, len(cached))
		copy(out, cached)
		t.mu.Unlock()
		return out, true
	}
	if _, outstanding := t.pending[key]; outstanding {
		t.mu.Unlock()
		return nil, false
	}
	t.pending[key] = t.now()
	t.mu.Unlock()

	t.issue(key)
	return nil, false
}

// issue sends the request for key, rolling the pending entry back when the
// send fails so the next query can retry immediately.
func (t *Tracker) issue(key requestKey) {
	err := t.sender.SendPropertyRequest(key.muid, key.resource)
	if err == nil {
		return
	}

	t.mu.Lock()
	delete(t.pending, key)
	logger := t.logger
	t.mu.Unlock()

	if logger != nil {
		logger.Warn("property request send failed",
			"muid", key.muid.String(),
			"resource", key.resource,
			"error", err)
	}
}

// HandleReply ingests a get-property-data reply. The body is parsed
// according to the reply's request ID; on success the value is cached, the
// pending entry is cleared and the properties-changed callback fires. A
// body that fails to parse clears the pending entry and leaves the cache
// untouched, so the next query re-requests immediately.
func (t *Tracker) HandleReply(muid ci.MUID, requestID uint8, body []byte) {
	resource, err := ResourceForRequestID(requestID)
	if err != nil {
		t.mu.Lock()
		logger := t.logger
		t.mu.Unlock()
		if logger != nil {
			logger.Warn("property reply with unknown request ID",
				"muid", muid.String(),
				"requestID", requestID)
		}
		return
	}

	var parseErr error
	entries := 0

	t.mu.Lock()
	switch resource {
	case ResourceAllCtrlList:
		list, err := ParseControlList(body)
		if err != nil {
			parseErr = err
		} else {
			t.controls[muid] = list
			entries = len(list)
		}
	case ResourceProgramList:
		list, err := ParseProgramList(body)
		if err != nil {
			parseErr = err
		} else {
			t.programs[muid] = list
			entries = len(list)
		}
	}
	delete(t.pending, requestKey{muid: muid, resource: resource})
	logger := t.logger
	onChanged := t.onPropertiesChanged
	t.mu.Unlock()

	if parseErr != nil {
		if logger != nil {
			logger.Warn("property reply parse failed",
				"muid", muid.String(),
				"resource", resource,
				"error", parseErr)
		}
		return
	}

	if logger != nil {
		logger.Debug("property cached",
			"muid", muid.String(),
			"resource", resource,
			"entries", entries)
	}
	if onChanged != nil {
		onChanged(muid)
	}
}

// Forget drops all cached values and pending requests for one device, e.g.
// after its MUID is invalidated.
func (t *Tracker) Forget(muid ci.MUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.controls, muid)
	delete(t.programs, muid)
	for key := range t.pending {
		if key.muid == muid {
			delete(t.pending, key)
		}
	}
}

// Reset drops every cached value and pending request.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = make(map[requestKey]time.Time)
	t.controls = make(map[ci.MUID][]Control)
	t.programs = make(map[ci.MUID][]Program)
}

// PendingCount returns the number of in-flight requests.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// sweepExpiredLocked removes pending entries older than RequestTimeout.
// Callers must hold mu.
func (t *Tracker) sweepExpiredLocked() {
	cutoff := t.now().Add(-RequestTimeout)
	for key, sentAt := range t.pending {
		if sentAt.Before(cutoff) {
			delete(t.pending, key)
		}
	}
}
