package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequireAdminToken guards operational endpoints with a static shared token
// carried in the X-Admin-Token header. An empty configured token disables the
// check, which is acceptable for development only.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			presented := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized admin request",
					"request_id", chimiddleware.GetReqID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing or invalid admin token"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
