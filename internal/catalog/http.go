package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/quovi/discover/internal/breaker"
	"github.com/quovi/discover/internal/metrics"
	"github.com/quovi/discover/internal/restaurant"
)

// HTTPSource fetches GET {baseURL}/restaurantes on every call.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	breaker    *breaker.Breaker[[]restaurant.Restaurant]
	logger     *zap.Logger
}

// NewHTTPSource creates a source for the backend API at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("catalog")
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker.New[[]restaurant.Restaurant]("catalog-api", breaker.Settings{}, logger),
		logger:     logger,
	}
}

// Name returns "http".
func (s *HTTPSource) Name() string { return "http" }

// Restaurants fetches the catalog. Failures match ErrUnavailable.
func (s *HTTPSource) Restaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	start := time.Now()
	restaurants, err := s.breaker.Execute(func() ([]restaurant.Restaurant, error) {
		return s.fetch(ctx)
	})
	metrics.RecordCatalogFetch(s.Name(), time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return restaurants, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]restaurant.Restaurant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/restaurantes", nil)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send GET request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode > 399 {
		return nil, fmt.Errorf("fail with status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response body: %w", err)
	}

	restaurants := sanitize(env.Data, s.logger)
	s.logger.Debug("catalog fetched",
		zap.Int("received", len(env.Data)),
		zap.Int("kept", len(restaurants)),
	)
	return restaurants, nil
}
