// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/scoring"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	CORS struct {
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}
	RateLimit struct {
		Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
		Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
		Disabled bool          `env:"RATE_LIMIT_DISABLED" envDefault:"false"`
	}
	Catalog struct {
		URL     string        `env:"CATALOG_URL" envDefault:"http://localhost:8080/api"`
		File    string        `env:"CATALOG_FILE"`
		Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	}
	Weather struct {
		APIKey  string        `env:"WEATHER_API_KEY"`
		URL     string        `env:"WEATHER_URL" envDefault:"https://api.openweathermap.org/data/2.5/weather"`
		Timeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"5s"`
	}
	Embeddings struct {
		URL      string        `env:"EMBEDDINGS_URL"`
		Timeout  time.Duration `env:"EMBEDDINGS_TIMEOUT" envDefault:"30s"`
		RPS      float64       `env:"EMBEDDINGS_RPS" envDefault:"20"`
		Disabled bool          `env:"EMBEDDINGS_DISABLED" envDefault:"false"`
	}
	Scoring struct {
		Craving  float64 `env:"SCORE_WEIGHT_CRAVING" envDefault:"0.50"`
		Occasion float64 `env:"SCORE_WEIGHT_OCCASION" envDefault:"0.20"`
		Distance float64 `env:"SCORE_WEIGHT_DISTANCE" envDefault:"0.15"`
		Budget   float64 `env:"SCORE_WEIGHT_BUDGET" envDefault:"0.10"`
		Weather  float64 `env:"SCORE_WEIGHT_WEATHER" envDefault:"0.05"`
	}
	Optimization struct {
		InitialTemperature float64 `env:"SA_INITIAL_TEMPERATURE" envDefault:"100"`
		MinTemperature     float64 `env:"SA_MIN_TEMPERATURE" envDefault:"0.1"`
		CoolingRate        float64 `env:"SA_COOLING_RATE" envDefault:"0.95"`
		MaxIterations      int     `env:"SA_MAX_ITERATIONS" envDefault:"300"`
		RelevanceWeight    float64 `env:"SA_RELEVANCE_WEIGHT" envDefault:"0.80"`
		DiversityWeight    float64 `env:"SA_DIVERSITY_WEIGHT" envDefault:"0.20"`
		PoolSize           int     `env:"SA_POOL_SIZE" envDefault:"20"`
		CandidateLimit     int     `env:"RANK_CANDIDATE_LIMIT" envDefault:"50"`
		DefaultTopN        int     `env:"DISCOVER_DEFAULT_TOP_N" envDefault:"10"`
		MaxTopN            int     `env:"DISCOVER_MAX_TOP_N" envDefault:"20"`
	}
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom is Load over an explicit variable set instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ScoringWeights returns the criterion weights.
func (c *Config) ScoringWeights() scoring.Weights {
	return scoring.Weights{
		Craving:  c.Scoring.Craving,
		Occasion: c.Scoring.Occasion,
		Distance: c.Scoring.Distance,
		Budget:   c.Scoring.Budget,
		Weather:  c.Scoring.Weather,
	}
}

// Annealing returns the optimizer parameters.
func (c *Config) Annealing() optimization.Config {
	o := c.Optimization
	return optimization.Config{
		InitialTemperature: o.InitialTemperature,
		MinTemperature:     o.MinTemperature,
		CoolingRate:        o.CoolingRate,
		MaxIterations:      o.MaxIterations,
		RelevanceWeight:    o.RelevanceWeight,
		DiversityWeight:    o.DiversityWeight,
		PoolSize:           o.PoolSize,
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if err := c.ScoringWeights().Validate(); err != nil {
		return fmt.Errorf("config: scoring: %w", err)
	}
	if err := c.Annealing().Validate(); err != nil {
		return fmt.Errorf("config: optimization: %w", err)
	}

	o := c.Optimization
	switch {
	case o.CandidateLimit < 1:
		return fmt.Errorf("config: RANK_CANDIDATE_LIMIT must be at least 1, got %d", o.CandidateLimit)
	case o.MaxTopN < 1:
		return fmt.Errorf("config: DISCOVER_MAX_TOP_N must be at least 1, got %d", o.MaxTopN)
	case o.DefaultTopN < 1 || o.DefaultTopN > o.MaxTopN:
		return fmt.Errorf("config: DISCOVER_DEFAULT_TOP_N must be in [1,%d], got %d", o.MaxTopN, o.DefaultTopN)
	case c.HTTP.Port < 1 || c.HTTP.Port > 65535:
		return fmt.Errorf("config: HTTP_PORT out of range: %d", c.HTTP.Port)
	case !c.RateLimit.Disabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0):
		return fmt.Errorf("config: rate limit needs positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	case !c.Embeddings.Disabled && c.Embeddings.URL != "" && !(c.Embeddings.RPS > 0):
		return fmt.Errorf("config: EMBEDDINGS_RPS must be positive, got %v", c.Embeddings.RPS)
	}
	return nil
}
