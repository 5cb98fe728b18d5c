package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendalink/vendalink/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
// loginLimiter rate-limits the login endpoint; adminKey guards the tenant
// administration surface and the monitor socket.
func MountRoutes(r chi.Router, h *Handlers, loginLimiter, adminKey func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	sessionGuard := middleware.RequireSession(h.Heartbeats)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth. Introspection stays unguarded: it must answer live=false for
		// a dead token instead of rejecting the request outright.
		r.With(loginLimiter).Post("/auth/login", h.Login)
		r.With(sessionGuard).Post("/auth/logout", h.Logout)
		r.Get("/auth/session", h.GetSession)

		// Tenant administration
		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(adminKey)
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Put("/{id}", h.UpdateTenant)
			r.Get("/{id}/sessions", h.ListTenantSessions)
		})
	})

	// Live session monitor for the admin panel
	r.With(adminKey).Get("/ws/monitor", h.Hub.HandleWS)
}
