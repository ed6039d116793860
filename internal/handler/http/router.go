package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovasylenko/contacthub/internal/domain"
	"github.com/ovasylenko/contacthub/internal/service"
	"github.com/ovasylenko/contacthub/pkg/health"
	"github.com/ovasylenko/contacthub/pkg/middleware"
)

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	authService *service.AuthService,
	contactService *service.ContactService,
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
	r.Use(middleware.Tracing("contacthub"))
	r.Use(middleware.PrometheusMetrics("contacthub"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)
	userHandler := NewUserHandler(authService, logger)
	contactHandler := NewContactHandler(contactService, logger)

	r.Route("/api/auth", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/request-verification", authHandler.RequestVerification)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Get("/confirm/{token}", authHandler.ConfirmEmail)

		// Logout needs the caller's access token to deny-list it.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(Auth(authService))

			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Auth(authService))

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(10, time.Minute))
			r.Get("/me", userHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleModerator, domain.RoleAdmin))
			r.Get("/moderator", userHandler.ModeratorArea)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))
			r.Get("/admin", userHandler.AdminArea)
			r.Patch("/avatar", userHandler.UpdateAvatar)
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Auth(authService))

		r.Post("/", contactHandler.Create)
		r.Get("/", contactHandler.List)
		r.Get("/search", contactHandler.Search)
		r.Get("/upcoming-birthdays", contactHandler.UpcomingBirthdays)
		r.Get("/{id}", contactHandler.Get)
		r.Patch("/{id}", contactHandler.Update)
		r.Delete("/{id}", contactHandler.Delete)
	})

	return r
}
