package goConsole

import (
	"context"
	"io"

	"github.com/MrEthical07/goConsole/internal/audit"
)

// Audit event kinds emitted by the Store.
const (
	AuditLoginSuccess    = audit.KindLoginSuccess
	AuditLoginFailure    = audit.KindLoginFailure
	AuditLogout          = audit.KindLogout
	AuditSessionRestored = audit.KindSessionRestored
)

type (
	// AuditKind names a session lifecycle event.
	AuditKind = audit.Kind
	// AuditStats counts delivered and lost audit events.
	AuditStats = audit.Stats
	// AuditEvent is one session lifecycle record.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = audit.Sink
	// NoOpSink discards events.
	NoOpSink = audit.NoOpSink
	// ChannelSink forwards events into a channel.
	ChannelSink = audit.ChannelSink
	// JSONWriterSink writes JSON lines.
	JSONWriterSink = audit.JSONWriterSink
	// SlogSink logs events.
	SlogSink = audit.SlogSink
)

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func (s *Store) emitAudit(ctx context.Context, kind AuditKind, username string, success bool, err error, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: s.clock.Now().UTC(),
		Type:      kind,
		Username:  username,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.audit.Emit(ctx, event)
}

// AuditDropped returns how many audit events never reached the sink, either
// refused under backpressure or abandoned at the Close flush deadline.
func (s *Store) AuditDropped() uint64 {
	return s.audit.Stats().Lost()
}

// AuditStats returns the dispatcher's delivery counters. Zero when auditing
// is disabled.
func (s *Store) AuditStats() AuditStats {
	return s.audit.Stats()
}
