package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
)

// redacted strips the database password from a tenant before it leaves the API.
func redacted(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	c.Coords = c.Coords.Redacted()
	return &c
}

// ListTenants handles GET /api/v1/admin/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	out := make([]tenant.Tenant, 0, len(tenants))
	for i := range tenants {
		out = append(out, *redacted(&tenants[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTenant handles POST /api/v1/admin/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.Tenants.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "tenant creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, redacted(t))
}

// GetTenant handles GET /api/v1/admin/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.Tenants.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, redacted(t))
}

// UpdateTenant handles PUT /api/v1/admin/tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := readJSON[tenant.UpdateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Update(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, redacted(t))
}

// ListTenantSessions handles GET /api/v1/admin/tenants/{id}/sessions
// It returns the sessions currently holding quota slots for the tenant.
func (h *Handlers) ListTenantSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sessions, err := h.Tenants.ActiveSessions(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
