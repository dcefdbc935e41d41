package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/TravelmateGo/internal/repository"
	"github.com/utafrali/TravelmateGo/internal/service"
	"github.com/utafrali/TravelmateGo/internal/token"
	"github.com/utafrali/TravelmateGo/pkg/health"
	"github.com/utafrali/TravelmateGo/pkg/middleware"
)

// publicPaths bypass the authenticator entirely. OAuth redirect and callback
// paths are matched by prefix inside the authenticator.
func publicPaths() []string {
	return []string{
		"/api/v1/auth/signup",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/health/live",
		"/health/ready",
		"/metrics",
	}
}

// NewRouter creates a chi router with all member service routes registered.
func NewRouter(
	memberService *service.MemberService,
	tokens *token.Manager,
	revocations repository.RevocationStore,
	members repository.MemberRepository,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("member"))

	authenticator := NewAuthenticator(tokens, revocations, members, logger, publicPaths())
	r.Use(authenticator.Middleware)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Auth endpoints
	authHandler := NewAuthHandler(memberService, tokens, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		r.With(RequirePrincipal(logger)).Post("/logout", authHandler.Logout)
	})

	// Member profile endpoints (auth required)
	memberHandler := NewMemberHandler(memberService, logger)
	r.Route("/api/v1/members", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequirePrincipal(logger))

		r.Get("/me", memberHandler.GetProfile)
		r.Put("/me", memberHandler.UpdateProfile)
	})

	return r
}
