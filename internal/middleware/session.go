package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// LivenessChecker answers whether a session token is still usable.
type LivenessChecker interface {
	IsLive(ctx context.Context, token string) (bool, error)
}

// RequireSession returns middleware that rejects requests whose session
// token is missing, unknown, or aged out of the liveness window.
func RequireSession(hb LivenessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderSessionToken)
			if token == "" {
				http.Error(w, `{"success":false,"message":"session token required"}`, http.StatusUnauthorized)
				return
			}

			live, err := hb.IsLive(r.Context(), token)
			if err != nil {
				slog.Error("session liveness check failed", "error", err)
				http.Error(w, `{"success":false,"message":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			if !live {
				http.Error(w, `{"success":false,"message":"session expired"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
