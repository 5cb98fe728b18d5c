// Package session defines the ledger records tracking authenticated logins.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one row of the session ledger. Rows are never deleted by the
// core; an abandoned session simply ages out of the liveness window.
type Session struct {
	Token          string    `json:"token"`
	TenantID       string    `json:"tenant_id"`
	SubjectRef     string    `json:"subject_ref"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	Live           bool      `json:"live"`
	ClientAddr     string    `json:"client_addr,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
}

// NewToken generates a fresh opaque session token. Tokens are UUIDv4 strings
// and are never reused; a collision is a generation bug, not a recoverable case.
func NewToken() string {
	return uuid.NewString()
}

// ActiveWithin reports whether a session touched at lastActivity still counts
// as live at now. "Active" is a derived, time-relative property: it is never
// stored, always recomputed against the timeout window.
func ActiveWithin(lastActivity, now time.Time, timeout time.Duration) bool {
	return now.Sub(lastActivity) <= timeout
}
