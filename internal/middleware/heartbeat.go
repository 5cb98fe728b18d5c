// Package middleware provides the cross-cutting HTTP concerns of the core:
// session heartbeats, session guarding, admin authentication, rate limiting.
package middleware

import (
	"context"
	"net/http"
)

// HeaderSessionToken is the custom header every authenticated client sends.
const HeaderSessionToken = "X-Session-Token"

type sessionTokenCtxKey struct{}

// Toucher refreshes a session's last-activity timestamp.
type Toucher interface {
	Touch(token string)
}

// Heartbeat returns middleware that touches the session named by the
// X-Session-Token header before dispatching to the business endpoint. It
// runs unconditionally, never alters the response, and a missing token is a
// no-op rather than an error; unauthenticated probes are tolerated.
func Heartbeat(hb Toucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderSessionToken)
			if token != "" {
				hb.Touch(token)
				ctx := context.WithValue(r.Context(), sessionTokenCtxKey{}, token)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionTokenFromContext returns the session token stored by Heartbeat,
// or an empty string when the request carried none.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenCtxKey{}).(string)
	return token
}
