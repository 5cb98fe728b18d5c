// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing session lifecycle events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the queue connection.
	Close() error
}

// Subjects for session lifecycle events consumed by the surrounding
// CRM/reporting services.
const (
	SubjectSessionCreated    = "sessions.created"
	SubjectSessionRejected   = "sessions.rejected"
	SubjectSessionTerminated = "sessions.terminated"
)
