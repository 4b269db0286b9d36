package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quovi/discover/internal/config"
	"github.com/quovi/discover/internal/errors"
	"github.com/quovi/discover/internal/logging"
)

// NewRouter builds the full HTTP handler: middleware stack, liveness and
// metrics endpoints, and the API routes of svc.
func NewRouter(cfg *config.Config, logger *logging.Logger, svc Discoverer) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(errors.RecoveryMiddleware(logger))
	r.Use(errors.ErrorHandler(logger))
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := NewServer(logger, svc)
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
		srv.RegisterRoutes(r)
	})
	return r
}

func rateLimit(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.RateLimit.Disabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": http.StatusText(http.StatusTooManyRequests),
				"kind":  "rate_limited",
			})
		}),
	)
}
