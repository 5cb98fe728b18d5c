package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/port/database"
)

// TenantService backs the administrative panel: directory CRUD plus the
// explicit pool refresh when connection coordinates change.
type TenantService struct {
	store     database.Store
	registry  *Registry
	directory *Directory
	admission *AdmissionController
}

// NewTenantService creates a TenantService.
func NewTenantService(store database.Store, registry *Registry, directory *Directory, admission *AdmissionController) *TenantService {
	return &TenantService{store: store, registry: registry, directory: directory, admission: admission}
}

// Create registers a new tenant. The tax id is normalized and immutable from
// here on.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return s.store.CreateTenant(ctx, req)
}

// Get returns one tenant by directory id.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update applies the patch, invalidates the directory cache, and refreshes
// the tenant's pool. The registry skips the teardown when the coordinates
// are unchanged, so calling Replace on every save is cheap.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Status != nil {
		if *req.Status != tenant.StatusActive && *req.Status != tenant.StatusInactive {
			return nil, errors.New("invalid status")
		}
		t.Status = *req.Status
	}
	if req.Coords != nil {
		if err := req.Coords.Validate(); err != nil {
			return nil, fmt.Errorf("validate coords: %w", err)
		}
		t.Coords = *req.Coords
	}
	if req.SessionQuota != nil {
		if *req.SessionQuota < 0 {
			return nil, errors.New("session_quota must not be negative")
		}
		t.SessionQuota = *req.SessionQuota
	}
	if req.QuotaEnforced != nil {
		t.QuotaEnforced = *req.QuotaEnforced
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, t.TaxID)

	if t.Active() {
		// A failed redial is not fatal to the save: the pool is gone and the
		// next login dials fresh with the stored coordinates.
		if _, err := s.registry.Replace(ctx, t.ID, t.Coords); err != nil {
			slog.Warn("pool refresh after tenant update failed", "tenant", t.TaxID, "error", err)
		}
	} else {
		s.registry.Remove(t.ID)
	}

	return t, nil
}

// ActiveSessions lists the ledger rows currently holding quota slots for a
// tenant, for the support surface.
func (s *TenantService) ActiveSessions(ctx context.Context, tenantID string) ([]session.Session, error) {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s.store.ListActiveSessions(ctx, tenantID, s.admission.Cutoff())
}
