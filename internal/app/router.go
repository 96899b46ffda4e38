package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"secretlink/internal/domain"
)

// RouterConfig carries the pieces of configuration the router needs.
type RouterConfig struct {
	RequireHTTPS bool
	RateLimiter  *RateLimiterMiddleware
}

// NewRouter binds the two lifecycle operations to HTTP. Consumption is
// a destructive read: both DELETE and GET on an alias consume it.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(SecurityHeaders(SecurityHeadersConfig{RequireHTTPS: cfg.RequireHTTPS}))
	r.Use(ContentLengthValidator(domain.MaxRequestBodySize))

	r.Get("/health", h.HandleHealth)

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Post("/secrets", h.HandleCreate)
		r.Route("/secrets/{alias}", func(r chi.Router) {
			r.Delete("/", h.HandleConsume)
			r.Get("/", h.HandleConsume)
		})
		r.Get("/stats", h.HandleStats)
	})

	return r
}
