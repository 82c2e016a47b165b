package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/civicgraph/backend/internal/handler"
)

// Recovery turns a downstream panic into a 500 and keeps the server up.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Printf("panic recovered on %s %s: %v\n%s", r.Method, r.URL.Path, v, debug.Stack())
				handler.JSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
