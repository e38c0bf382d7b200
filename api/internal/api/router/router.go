// api/internal/api/router/router.go
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pixelfort/api/internal/api/handlers"
	auth_middleware "pixelfort/api/internal/api/middleware"
)

// RouterConfig defines the strict dependencies required to build the API routing tree.
type RouterConfig struct {
	AllowedOrigins     []string
	AuthHandler        *handlers.AuthHandler
	DomainHandler      *handlers.DomainHandler
	AdminDomainHandler *handlers.AdminDomainHandler
	ImageHandler       *handlers.ImageHandler
	WaitlistHandler    *handlers.WaitlistHandler
	AlertHandler       *handlers.AlertHandler
	ValidationHandler  *handlers.ValidationHandler
	HealthHandler      *handlers.HealthHandler
	AuthMiddleware     *auth_middleware.AuthMiddleware
	Logger             *slog.Logger
}

// NewRouter constructs the Chi multiplexer, attaches global middleware, and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// =========================================================================
	// 1. Global Gateway Middleware Pipeline
	// =========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth_middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// 🛡️ In-memory token bucket rate limiting
	r.Use(cfg.AuthMiddleware.RateLimit)

	// 🔒 Force all connections to use TLS/SSL and inject HSTS headers
	r.Use(auth_middleware.EnforceTLS)

	// Strict CORS Configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// =========================================================================
	// 2. Edge-Facing Routes (no /api prefix: the provider and browsers hit these)
	// =========================================================================

	// Domain-validation probes from the hostname provider.
	r.Get("/.well-known/acme-challenge/{token}", cfg.ValidationHandler.Respond)

	// Public image delivery.
	r.Get("/i/{key}", cfg.ImageHandler.Serve)

	r.Get("/health", cfg.HealthHandler.Check)
	r.Handle("/metrics", promhttp.Handler())

	// =========================================================================
	// 3. API v1 Routing Tree
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {

		// ---------------------------------------------------------------------
		// Public Routes (No Auth Required)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			// 🛡️ Limit JSON bodies to 1 Megabyte max (OOM Protection)
			r.Use(auth_middleware.MaxBytes(1_048_576))

			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)

			r.Post("/waitlist", cfg.WaitlistHandler.Join)
		})

		// ---------------------------------------------------------------------
		// Protected Routes (Requires a Valid JWT)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.RequireAuthentication)

			// --- Custom Domains ---
			r.Route("/domains", func(r chi.Router) {
				r.Use(auth_middleware.MaxBytes(1_048_576))
				r.Get("/", cfg.DomainHandler.List)
				r.Post("/", cfg.DomainHandler.Create)
				r.Delete("/{id}", cfg.DomainHandler.Delete)
			})

			r.With(auth_middleware.MaxBytes(1_048_576)).
				Put("/users/me/domain", cfg.DomainHandler.Select)

			// --- Images (multipart uploads get a bigger body cap) ---
			r.Route("/images", func(r chi.Router) {
				r.With(auth_middleware.MaxBytes(32 << 20)).
					Post("/", cfg.ImageHandler.Upload)
				r.Get("/", cfg.ImageHandler.List)
				r.Delete("/{id}", cfg.ImageHandler.Delete)
			})

			// --- Operator Surface ---
			r.Route("/admin", func(r chi.Router) {
				r.Use(cfg.AuthMiddleware.RequireAdmin)
				r.Use(auth_middleware.MaxBytes(1_048_576))

				r.Get("/domains", cfg.AdminDomainHandler.List)
				r.Post("/domains", cfg.AdminDomainHandler.Create)
				r.Patch("/domains/{id}", cfg.AdminDomainHandler.Patch)
				r.Delete("/domains/{id}", cfg.AdminDomainHandler.Delete)

				r.Get("/waitlist", cfg.WaitlistHandler.List)

				r.Get("/alerts", cfg.AlertHandler.List)
				r.Post("/alerts/{id}/resolve", cfg.AlertHandler.Resolve)
			})
		})
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	return r
}
