package connection

import (
	"log/slog"
	"sync"
)

// StateMonitor detects transitions of "both transport directions are open"
// and fires its callback exactly once per transition. A monitor starts
// disconnected.
type StateMonitor struct {
	mu sync.Mutex

	// Last evaluated combined state.
	connected bool

	logger *slog.Logger

	onChange func(connected bool)
}

// NewStateMonitor creates a monitor in the disconnected state.
func NewStateMonitor() *StateMonitor {
	return &StateMonitor{}
}

// SetLogger sets the logger for state transitions.
func (m *StateMonitor) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// OnChange sets the callback fired once per state transition with the new
// state. Typical wiring sends discovery on the transition to connected and
// clears the discovered-device registry on the transition to disconnected.
func (m *StateMonitor) OnChange(fn func(connected bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Evaluate recomputes the combined state from the two port directions and,
// when it differs from the previous evaluation, records it and fires the
// callback. Re-evaluating an unchanged state does nothing.
func (m *StateMonitor) Evaluate(inputOpen, outputOpen bool) {
	current := inputOpen && outputOpen

	m.mu.Lock()
	if current == m.connected {
		m.mu.Unlock()
		return
	}
	m.connected = current
	logger := m.logger
	onChange := m.onChange
	m.mu.Unlock()

	if logger != nil {
		logger.Debug("connection state changed",
			"connected", current,
			"inputOpen", inputOpen,
			"outputOpen", outputOpen)
	}
	if onChange != nil {
		onChange(current)
	}
}

// Connected returns the last evaluated state.
func (m *StateMonitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
