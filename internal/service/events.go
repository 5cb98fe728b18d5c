package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vendalink/vendalink/internal/port/broadcast"
	"github.com/vendalink/vendalink/internal/port/messagequeue"
)

// Event types mirrored to the admin monitor WebSocket.
const (
	EventSessionCreated    = "session.created"
	EventSessionRejected   = "session.rejected"
	EventSessionTerminated = "session.terminated"
)

// SessionEvent is the payload published on session lifecycle changes.
// Consumed by the surrounding CRM/reporting services over NATS and by the
// admin panel's live monitor over WebSocket.
type SessionEvent struct {
	TenantID   string    `json:"tenant_id"`
	TaxID      string    `json:"tax_id"`
	Token      string    `json:"token,omitempty"`
	SubjectRef string    `json:"subject_ref,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// Events fans session lifecycle events out to NATS and the monitor hub.
// Both sinks are optional and best-effort: a publish failure is logged and
// never surfaced to the login or logout in progress.
type Events struct {
	Queue messagequeue.Queue    // nil disables stream publishing
	Hub   broadcast.Broadcaster // nil disables monitor broadcasts
}

// Emit publishes evt on the given queue subject and broadcasts it to the
// monitor hub under eventType.
func (e *Events) Emit(ctx context.Context, subject, eventType string, evt SessionEvent) {
	if e == nil {
		return
	}

	if e.Queue != nil {
		data, err := json.Marshal(evt)
		if err != nil {
			slog.Error("marshal session event", "subject", subject, "error", err)
			return
		}
		if err := e.Queue.Publish(ctx, subject, data); err != nil {
			slog.Warn("session event publish failed", "subject", subject, "error", err)
		}
	}

	if e.Hub != nil {
		e.Hub.BroadcastEvent(ctx, eventType, evt)
	}
}
