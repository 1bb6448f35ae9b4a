// Package api wires the chi router: middleware, CORS, the notification
// trigger and the health and docs endpoints.
package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/crewmanager/shift-notifier/internal/api/handler"
	"github.com/crewmanager/shift-notifier/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(runner handler.Runner, db handler.HealthChecker, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS (default origin "*")
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "apikey", "x-client-info"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(runner, db, cfg.JobTimeout, logger)
	trigger := RequireBearer(cfg.TriggerToken)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// Function-style trigger path kept for existing cron callers.
	// rs/cors answers browser preflights before routing; plain OPTIONS probes
	// without Access-Control-Request-Method fall through to triggerOptions.
	options := triggerOptions(cfg.CORSAllowOrigins)
	r.With(trigger).Post("/functions/shift-notifications", h.RunNotifications)
	r.Options("/functions/shift-notifications", options)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/notifications", func(r chi.Router) {
			r.With(trigger).Post("/run", h.RunNotifications)
			r.Options("/run", options)
			r.Get("/templates", h.GetTemplates)
			r.Get("/last-run", h.GetLastRun)
		})
	})

	return r
}

// triggerOptions answers OPTIONS on the trigger paths with the allowed
// methods and headers.
func triggerOptions(origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		switch origin := r.Header.Get("Origin"); {
		case slices.Contains(origins, "*"):
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
		}
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		w.WriteHeader(http.StatusNoContent)
	}
}
