package http

import (
	"net/http"

	"github.com/vendalink/vendalink/internal/adapter/ws"
	"github.com/vendalink/vendalink/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth       *service.AuthService
	Tenants    *service.TenantService
	Heartbeats *service.HeartbeatService
	Hub        *ws.Hub
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"monitors": h.Hub.ConnectionCount(),
	})
}
