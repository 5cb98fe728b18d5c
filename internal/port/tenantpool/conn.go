// Package tenantpool defines the port for tenant database connections.
package tenantpool

import (
	"context"

	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/domain/user"
)

// Conn is a live handle to one tenant's database. A Conn is safe for
// unlimited concurrent use; only its creation is serialized by the registry.
type Conn interface {
	// AuthenticateUser looks up a user by email or by first+last name
	// (case-insensitive) and verifies the secret with an exact match.
	AuthenticateUser(ctx context.Context, email, firstName, lastName, secret string) (*user.User, error)

	// Close tears down the underlying connection pool.
	Close()
}

// Factory dials a tenant database and returns a ready Conn.
type Factory interface {
	Dial(ctx context.Context, tenantID string, coords tenant.Coordinates) (Conn, error)
}
