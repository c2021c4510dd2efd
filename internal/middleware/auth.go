package middleware

import (
	"net/http"
	"strings"

	"github.com/tokenpay/backend/internal/api/httpx"
	"github.com/tokenpay/backend/internal/auth"
)

// RequireAdmin guards the admin surface: a valid bearer token with the admin
// role claim, nothing else.
func RequireAdmin(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(ah, "Bearer ") {
				httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tm.Parse(strings.TrimPrefix(ah, "Bearer "))
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != "admin" {
				httpx.WriteError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
