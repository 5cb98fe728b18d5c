package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/user"
	"github.com/vendalink/vendalink/internal/middleware"
)

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Auth.Login(r.Context(), req, r.RemoteAddr, r.UserAgent())
	if err != nil {
		writeLoginError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeLoginError maps the typed login failures onto stable status codes and
// messages. Unknown and inactive tenants stay deliberately close in shape so
// callers cannot probe which tax ids exist.
func writeLoginError(w http.ResponseWriter, err error) {
	var qe *domain.QuotaExceededError
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		writeFailure(w, http.StatusNotFound, "company not found")
	case errors.Is(err, domain.ErrTenantInactive):
		writeFailure(w, http.StatusForbidden, "company is not authorized")
	case errors.As(err, &qe):
		writeFailure(w, http.StatusForbidden, qe.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrPoolUnavailable):
		slog.Error("tenant database unavailable", "error", err)
		writeFailure(w, http.StatusInternalServerError, "company database unavailable")
	default:
		writeInternalError(w, err)
	}
}

// Logout handles POST /api/v1/auth/logout. The route is mounted behind
// RequireSession, so the token is present and live by the time we get here.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionTokenFromContext(r.Context())

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "session not found")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetSession handles GET /api/v1/auth/session
// It reports whether the presented token still identifies a live session.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionTokenFromContext(r.Context())
	if token == "" {
		writeFailure(w, http.StatusUnauthorized, "session token required")
		return
	}

	live, err := h.Heartbeats.IsLive(r.Context(), token)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "live": live})
}
