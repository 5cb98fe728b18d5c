package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminKey carries the administrative API key.
const HeaderAdminKey = "X-Admin-Key"

// AdminKey returns middleware guarding the tenant administration surface.
// keyHash is a bcrypt hash of the expected key; when it is empty the whole
// surface is disabled.
func AdminKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				http.Error(w, `{"success":false,"message":"admin surface disabled"}`, http.StatusForbidden)
				return
			}

			key := r.Header.Get(HeaderAdminKey)
			if key == "" {
				http.Error(w, `{"success":false,"message":"admin key required"}`, http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				http.Error(w, `{"success":false,"message":"invalid admin key"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
