package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/TravelmateGo/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, already
// enriched with correlation_id and any active span's trace identifiers.
// Handlers pick it up with logger.FromContext. Mount after RequestLogging,
// which sets the correlation ID; the authenticator later replaces the
// stored logger with one carrying the member's identity.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
