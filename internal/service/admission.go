package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/port/database"
)

// AdmissionController decides whether a new login may proceed for a tenant.
// A session holds a quota slot iff its ledger row is flagged live and was
// touched within the session timeout window; a client that went dark without
// logging out therefore frees its slot once the window elapses. That window
// is the system's only reclamation mechanism and it is deliberately
// approximate.
type AdmissionController struct {
	store database.Store
	clock session.Clock
	cfg   config.Session
}

// NewAdmissionController creates an AdmissionController.
func NewAdmissionController(store database.Store, clock session.Clock, cfg config.Session) *AdmissionController {
	return &AdmissionController{store: store, clock: clock, cfg: cfg}
}

// MayAdmit reports whether tenant t can accept one more session, along with
// the effective limit. Tenants with quota enforcement disabled always admit.
//
// The count is taken at decision time with no reservation: two logins racing
// for the last slot may both be admitted, briefly exceeding the quota. See
// InsertSessionGuarded for the strict variant.
func (a *AdmissionController) MayAdmit(ctx context.Context, t *tenant.Tenant) (admitted bool, limit int, err error) {
	limit = a.Quota(t)
	if !t.QuotaEnforced {
		return true, limit, nil
	}

	count, err := a.store.CountActiveSessions(ctx, t.ID, a.Cutoff())
	if err != nil {
		return false, limit, fmt.Errorf("count active sessions: %w", err)
	}
	return count < limit, limit, nil
}

// Quota returns the tenant's configured quota, falling back to the default
// when the record has none set.
func (a *AdmissionController) Quota(t *tenant.Tenant) int {
	if t.SessionQuota > 0 {
		return t.SessionQuota
	}
	return a.cfg.DefaultQuota
}

// Cutoff returns the oldest last-activity timestamp that still counts as live.
func (a *AdmissionController) Cutoff() time.Time {
	return a.clock.Now().Add(-a.cfg.Timeout)
}
