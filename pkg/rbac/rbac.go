// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/response"
)

// HasRole allows access only to callers with one of the given roles.
// Requires middleware.Auth to have run first (role must be in context).
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok || !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
