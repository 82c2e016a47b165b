package middleware

import (
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/handler"
)

// AdminOnly rejects callers without the admin role. Runs after Auth,
// which puts the role in context.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, ok := contextkeys.RoleFrom(r.Context()); !ok || role != "admin" {
			handler.JSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
