package weather

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/quovi/discover/internal/breaker"
	"github.com/quovi/discover/internal/metrics"
	"github.com/quovi/discover/internal/restaurant"
)

// DefaultURL is the OpenWeather current weather endpoint.
const DefaultURL = "https://api.openweathermap.org/data/2.5/weather"

// SourceOpenWeather marks reports fetched from OpenWeather.
const SourceOpenWeather = "openweathermap"

// OpenWeatherClient classifies the current weather reported by OpenWeather.
// Any failure, including a missing API key, falls back to another classifier.
type OpenWeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *breaker.Breaker[Report]
	fallback   Classifier
	logger     *zap.Logger
}

// NewOpenWeatherClient creates a client. An empty baseURL uses DefaultURL and
// a nil fallback uses a random MockClassifier.
func NewOpenWeatherClient(baseURL, apiKey string, timeout time.Duration, fallback Classifier, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if fallback == nil {
		fallback = NewMockClassifier(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("weather")
	return &OpenWeatherClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker.New[Report]("openweathermap", breaker.Settings{}, logger),
		fallback:   fallback,
		logger:     logger,
	}
}

// Classify returns the weather at loc.
func (c *OpenWeatherClient) Classify(ctx context.Context, loc restaurant.Location) (Report, error) {
	if c.apiKey == "" {
		c.logger.Warn("no weather API key configured, using mock weather")
		return c.classifyFallback(ctx, loc)
	}

	report, err := c.breaker.Execute(func() (Report, error) {
		return c.fetch(ctx, loc)
	})
	if err != nil {
		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}
		c.logger.Warn("weather lookup failed, using mock weather",
			zap.Error(err),
			zap.Bool("circuit_open", breaker.IsRejected(err)),
		)
		return c.classifyFallback(ctx, loc)
	}

	metrics.WeatherLookupsTotal.WithLabelValues(SourceOpenWeather).Inc()
	return report, nil
}

func (c *OpenWeatherClient) classifyFallback(ctx context.Context, loc restaurant.Location) (Report, error) {
	report, err := c.fallback.Classify(ctx, loc)
	if err == nil {
		metrics.WeatherLookupsTotal.WithLabelValues(report.Source).Inc()
	}
	return report, err
}

type owmResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Message string `json:"message"`
}

func (c *OpenWeatherClient) fetch(ctx context.Context, loc restaurant.Location) (Report, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("create GET request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("send GET request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Report{}, fmt.Errorf("read response body: %w", err)
	}

	var data owmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Report{}, fmt.Errorf("unmarshal response body (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode > 399 {
		return Report{}, fmt.Errorf("fail with status %d: %s", res.StatusCode, data.Message)
	}
	if len(data.Weather) == 0 {
		return Report{}, fmt.Errorf("response has no weather conditions")
	}

	temp := math.Round(data.Main.Temp*10) / 10
	return Report{
		Label:        Classify(data.Weather[0].ID, data.Main.Temp),
		TemperatureC: temp,
		Description:  data.Weather[0].Description,
		Source:       SourceOpenWeather,
	}, nil
}
