package reelauth

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/reelauth/reelauth/internal/audit"
)

// AuditEvent is the event model delivered to audit sinks.
type AuditEvent = audit.Event

// AuditSink receives engine audit events. Implementations must tolerate
// concurrent calls.
type AuditSink = audit.Sink

// NewJSONAuditSink returns a sink writing one JSON event per line.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// NewChannelAuditSink returns a sink feeding a buffered channel, mainly
// for tests.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, userID int64, email string, opErr error) {
	if e.audit == nil {
		return
	}

	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Success:   opErr == nil,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}
