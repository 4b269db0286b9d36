package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/quovi/discover/internal/discover"
	"github.com/quovi/discover/internal/embedding"
	"github.com/quovi/discover/internal/errors"
	"github.com/quovi/discover/internal/logging"
	"github.com/quovi/discover/internal/metrics"
	"github.com/quovi/discover/internal/restaurant"
	"github.com/quovi/discover/internal/validation"
	"github.com/quovi/discover/internal/weather"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "restaurant-discovery"

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Discoverer is the recommendation pipeline served over HTTP.
type Discoverer interface {
	Discover(ctx context.Context, req discover.Request) (*discover.Response, error)
	Weather(ctx context.Context, loc restaurant.Location) (weather.Report, error)
	ClearEmbeddings()
	EmbeddingStats() (embedding.Stats, bool)
}

// Server implements the HTTP and JSON-RPC surface of the discovery service.
type Server struct {
	logger Logger
	svc    Discoverer
}

// NewServer creates a new server instance with the given logger and pipeline.
func NewServer(logger Logger, svc Discoverer) *Server {
	return &Server{
		logger: logger,
		svc:    svc,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/discover", s.handleDiscover)
		r.Get("/climate/{lat}/{lng}", s.handleClimate)
		r.Get("/embeddings", s.handleEmbeddingStats)
		r.Delete("/embeddings", s.handleEmbeddingClear)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

// handleDiscover handles POST /api/v1/discover.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discover.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondWithError(w, r, errors.Wrap(err, "invalid request body").WithKind(errors.KindInvalidInput))
		return
	}

	resp, err := s.svc.Discover(r.Context(), req)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClimate handles GET /api/v1/climate/{lat}/{lng}.
func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(chi.URLParam(r, "lat"), chi.URLParam(r, "lng"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	report, err := s.svc.Weather(r.Context(), loc)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseLocation(lat, lng string) (restaurant.Location, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return restaurant.Location{}, errors.Errorf("invalid latitude %q", lat).WithKind(errors.KindInvalidInput)
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return restaurant.Location{}, errors.Errorf("invalid longitude %q", lng).WithKind(errors.KindInvalidInput)
	}
	return restaurant.Location{Latitude: la, Longitude: lo}, nil
}

// handleEmbeddingStats handles GET /api/v1/embeddings.
func (s *Server) handleEmbeddingStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.embeddingStats())
}

// handleEmbeddingClear handles DELETE /api/v1/embeddings.
func (s *Server) handleEmbeddingClear(w http.ResponseWriter, r *http.Request) {
	s.svc.ClearEmbeddings()
	s.logger.Info("Embedding cache cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) embeddingStats() map[string]interface{} {
	stats, enabled := s.svc.EmbeddingStats()
	return map[string]interface{}{
		"enabled":   enabled,
		"ready":     stats.Ready,
		"size":      stats.Size,
		"dimension": stats.Dimension,
		"generator": stats.Generator,
		"builds":    stats.Builds,
	}
}

// respondWithError writes err as {"error", "kind"} with the status of its
// kind. Validation failures also list the offending fields.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	kind := errors.KindOf(err)

	fields := map[string]interface{}{
		"status": status,
		"kind":   kind,
		"path":   r.URL.Path,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", fields)
	} else {
		s.logger.Debug("Request rejected", fields)
	}

	body := map[string]interface{}{
		"error": publicMessage(err, status),
		"kind":  kind,
	}
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		body["fields"] = ve.Fields
	}
	writeJSON(w, status, body)
}

// publicMessage hides internal error detail from clients.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Metrics records every request in the HTTP metrics, labelled by route
// pattern so path parameters do not explode the label space.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.RecordAPIRequest(r.Method, route, rw.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
