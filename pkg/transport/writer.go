package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/ump"
)

// DefaultMaxSysExSize is the default maximum SysEx payload size the writer
// accepts (4 KB), matching the receivable maximum advertised in discovery.
const DefaultMaxSysExSize = 4096

// Writer errors.
var (
	// ErrSysExTooLarge indicates the payload exceeds the maximum size.
	ErrSysExTooLarge = errors.New("sysex too large")

	// ErrSysExEmpty indicates an empty payload.
	ErrSysExEmpty = errors.New("sysex is empty")
)

// SysExWriter fragments SysEx byte streams into UMP SysEx7 packets and
// sends them over a PacketSender. It is the sending counterpart of
// ump.Reassembler.
type SysExWriter struct {
	sender  PacketSender
	group   uint8
	maxSize int
	mu      sync.Mutex

	// Logging support (optional)
	logger log.Logger
	portID string
}

// NewSysExWriter creates a writer that sends on the given UMP group.
func NewSysExWriter(sender PacketSender, group uint8) *SysExWriter {
	return &SysExWriter{
		sender:  sender,
		group:   group & 0x0F,
		maxSize: DefaultMaxSysExSize,
	}
}

// NewSysExWriterWithMaxSize creates a writer with a custom maximum payload size.
func NewSysExWriterWithMaxSize(sender PacketSender, group uint8, maxSize int) *SysExWriter {
	return &SysExWriter{
		sender:  sender,
		group:   group & 0x0F,
		maxSize: maxSize,
	}
}

// SetLogger configures protocol event logging for this writer.
// Pass nil to disable logging.
func (w *SysExWriter) SetLogger(logger log.Logger, portID string) {
	w.logger = logger
	w.portID = portID
}

// SendSysEx fragments the payload and sends the resulting packets in wire
// order. The payload must exclude the 0xF0/0xF7 framing bytes; framing is
// implied by the packet statuses.
//
// Thread-safe: the whole packet sequence is sent under the writer's lock,
// so fragments from concurrent callers never interleave.
func (w *SysExWriter) SendSysEx(payload []byte) error {
	if len(payload) == 0 {
		return ErrSysExEmpty
	}
	if len(payload) > w.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrSysExTooLarge, len(payload), w.maxSize)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	packets := ump.FragmentSysEx7(w.group, payload)
	for i, p := range packets {
		if err := w.sender.SendPacket(p); err != nil {
			return fmt.Errorf("failed to send packet %d of %d: %w", i+1, len(packets), err)
		}
	}

	// Log the stream if logger is configured
	if w.logger != nil {
		w.logger.Log(w.makeSysExEvent(payload))
	}

	return nil
}

// makeSysExEvent creates a log event for a sent stream. The logged data is
// framed with 0xF0/0xF7 so captures read the same in both directions.
func (w *SysExWriter) makeSysExEvent(payload []byte) log.Event {
	framed := make([]byte, 0, len(payload)+2)
	framed = append(framed, ump.SysExStartByte)
	framed = append(framed, payload...)
	framed = append(framed, ump.SysExEndByte)

	size := len(framed)
	eventData := framed
	truncated := false

	if len(framed) > ump.MaxLogSysExDataSize {
		eventData = framed[:ump.MaxLogSysExDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp: time.Now(),
		PortID:    w.portID,
		Direction: log.DirectionOut,
		Layer:     log.LayerSysEx,
		Category:  log.CategoryMessage,
		Group:     w.group,
		SysEx: &log.SysExEvent{
			Size:      size,
			Data:      eventData,
			Truncated: truncated,
		},
	}
}
