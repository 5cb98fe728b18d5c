// Package database defines the directory store port (interface).
package database

import (
	"context"
	"time"

	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
)

// Store is the port interface over the master directory database: the tenant
// table and the session ledger.
type Store interface {
	// Tenants
	GetTenantByTaxID(ctx context.Context, taxID string) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error

	// Session ledger
	InsertSession(ctx context.Context, s *session.Session) error
	// InsertSessionGuarded counts live in-window sessions and inserts in one
	// serializable transaction. Returns false when the tenant is at quota.
	InsertSessionGuarded(ctx context.Context, s *session.Session, cutoff time.Time, quota int) (bool, error)
	GetSession(ctx context.Context, token string) (*session.Session, error)
	// TouchSession advances last_activity_at to now; it never moves it backwards.
	TouchSession(ctx context.Context, token string, now time.Time) error
	TerminateSession(ctx context.Context, token string) error
	CountActiveSessions(ctx context.Context, tenantID string, cutoff time.Time) (int, error)
	ListActiveSessions(ctx context.Context, tenantID string, cutoff time.Time) ([]session.Session, error)
}
