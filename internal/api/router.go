// Package api exposes the dashboard over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/resilience"
)

// RequestTimeout bounds one request. It covers a full assistant call.
const RequestTimeout = 90 * time.Second

// Config holds router configuration
type Config struct {
	Dispatcher     *dashboard.Dispatcher
	AllowedOrigins []string
	Logger         zerolog.Logger
	// Breakers is reported by /health when set.
	Breakers *resilience.CircuitBreakerRegistry
}

// NewRouter creates the HTTP router
func NewRouter(cfg Config) http.Handler {
	h := &handler{d: cfg.Dispatcher, breakers: cfg.Breakers, logger: cfg.Logger}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger, "/health"))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tickers/popular", h.popular)
		r.Get("/market/status", h.marketStatus)

		r.Route("/tickers/{symbol}", func(r chi.Router) {
			r.Get("/", h.ticker)
			r.Get("/company", h.company)
			r.Get("/finance/{kind}", h.finance)

			r.Get("/chat", h.chat)
			r.Post("/chat", h.ask)
			r.Delete("/chat", h.clearChat)
		})

		r.Put("/credential", h.saveCredential)
		r.Delete("/credential", h.clearCredential)

		r.Post("/scan", h.scan)
		r.Get("/scan/last", h.lastScan)
		r.Get("/scan/progress", h.scanProgress)

		r.Post("/upstreams/reset", h.resetUpstreams)
	})

	return r
}
