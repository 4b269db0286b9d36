package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/quovi/discover/internal/catalog"
	"github.com/quovi/discover/internal/config"
	"github.com/quovi/discover/internal/discover"
	"github.com/quovi/discover/internal/embedding"
	"github.com/quovi/discover/internal/logging"
	"github.com/quovi/discover/internal/optimization/annealing"
	"github.com/quovi/discover/internal/scoring"
	"github.com/quovi/discover/internal/server"
	"github.com/quovi/discover/internal/weather"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use standard logger as fallback if config loading fails
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize base logger
	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": server.ServiceName,
		"version": server.Version,
	})
	zapLogger := logging.NewZapLogger(serviceLogger)
	defer func() { _ = zapLogger.Sync() }()

	svc, err := buildService(cfg, zapLogger)
	if err != nil {
		serviceLogger.WithError(err).Fatal("Failed to initialize service")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.NewRouter(cfg, serviceLogger, svc),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start HTTP server
	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address": httpServer.Addr,
		})

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	serviceLogger.Info("Server stopped")
}

// buildService wires the recommendation pipeline from cfg.
func buildService(cfg *config.Config, logger *zap.Logger) (*discover.Service, error) {
	var source catalog.Source
	if cfg.Catalog.File != "" {
		fs, err := catalog.LoadFile(cfg.Catalog.File, logger)
		if err != nil {
			return nil, err
		}
		source = fs
	} else {
		source = catalog.NewHTTPSource(cfg.Catalog.URL, cfg.Catalog.Timeout, logger)
	}

	classifier := weather.NewOpenWeatherClient(
		cfg.Weather.URL,
		cfg.Weather.APIKey,
		cfg.Weather.Timeout,
		weather.NewMockClassifier(nil),
		logger,
	)

	var cache *embedding.Cache
	if !cfg.Embeddings.Disabled {
		var gen embedding.Generator = embedding.NGramGenerator{}
		if cfg.Embeddings.URL != "" {
			gen = embedding.NewHTTPGenerator(cfg.Embeddings.URL, cfg.Embeddings.Timeout,
				embedding.WithRateLimit(cfg.Embeddings.RPS))
		}
		cache = embedding.NewCache(gen, logger)
	}

	scorer, err := scoring.NewScorer(cfg.ScoringWeights(), logger)
	if err != nil {
		return nil, err
	}
	annealer, err := annealing.NewAnnealer(cfg.Annealing(), annealing.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline configured",
		zap.String("catalog", source.Name()),
		zap.Bool("weather_api", cfg.Weather.APIKey != ""),
		zap.Bool("embeddings", cache != nil),
	)

	return discover.NewService(discover.Dependencies{
		Catalog:    source,
		Weather:    classifier,
		Ranker:     scoring.NewRanker(scorer, logger),
		Optimizer:  annealer,
		Embeddings: cache,
	}, discover.Options{
		CandidateLimit: cfg.Optimization.CandidateLimit,
		DefaultTopN:    cfg.Optimization.DefaultTopN,
		MaxTopN:        cfg.Optimization.MaxTopN,
	}, logger)
}
