package middleware

import (
	"context"
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/handler"
	"github.com/civicgraph/backend/internal/service"
)

// APIKeyAuth authenticates public API requests via the X-API-Key header.
// The key's owner must still hold the api_call entitlement: a downgraded
// plan loses API access immediately, valid key or not.
func APIKeyAuth(keys *service.APIKeyService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, decision, err := keys.Authenticate(r.Context(), r.Header.Get("X-API-Key"))
			if err != nil {
				handler.Error(w, err)
				return
			}
			if userID == "" {
				handler.JSON(w, http.StatusForbidden, decision)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.UserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
