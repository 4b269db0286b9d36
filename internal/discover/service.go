// Package discover runs one recommendation request end to end: catalog and
// weather lookup, ranking, embedding table and annealing.
package discover

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quovi/discover/internal/catalog"
	"github.com/quovi/discover/internal/embedding"
	"github.com/quovi/discover/internal/errors"
	"github.com/quovi/discover/internal/metrics"
	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/restaurant"
	"github.com/quovi/discover/internal/scoring"
	"github.com/quovi/discover/internal/validation"
	"github.com/quovi/discover/internal/weather"
)

// Algorithm is reported in the response statistics.
const Algorithm = "simulated_annealing"

const component = "discover"

// Request is the questionnaire answer plus the user location.
type Request struct {
	Preferences restaurant.Preferences `json:"preferences"`
	Location    restaurant.Location    `json:"location"`
	TopN        *int                   `json:"top_n,omitempty" validate:"omitempty,min=1"`
}

// Statistics extends the optimizer statistics with pipeline counters.
type Statistics struct {
	TotalEvaluated int    `json:"total_evaluated"`
	Candidates     int    `json:"candidates"`
	Algorithm      string `json:"algorithm"`
	optimization.Stats
}

// Response is the recommendation result.
type Response struct {
	RequestID       string              `json:"request_id"`
	Recommendations []restaurant.Scored `json:"recommendations"`
	Statistics      Statistics          `json:"statistics"`
	Weather         *weather.Report     `json:"weather,omitempty"`
}

// Options are the request level knobs.
type Options struct {
	CandidateLimit int
	DefaultTopN    int
	MaxTopN        int
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{CandidateLimit: 50, DefaultTopN: 10, MaxTopN: 20}
}

// Dependencies are the collaborators of a Service. Weather and Embeddings are
// optional: without a classifier canned reports are used, and without a
// cache every run falls back to category diversity.
type Dependencies struct {
	Catalog    catalog.Source
	Weather    weather.Classifier
	Ranker     *scoring.Ranker
	Optimizer  optimization.Optimizer
	Embeddings *embedding.Cache
}

// Service orchestrates recommendation requests. It is safe for concurrent use.
type Service struct {
	deps   Dependencies
	opts   Options
	logger *zap.Logger
}

// NewService validates deps and opts and returns a Service.
func NewService(deps Dependencies, opts Options, logger *zap.Logger) (*Service, error) {
	if deps.Catalog == nil || deps.Ranker == nil || deps.Optimizer == nil {
		return nil, errors.New("catalog, ranker and optimizer are required").
			WithOperation("new").WithComponent(component)
	}
	if opts.CandidateLimit < 1 || opts.MaxTopN < 1 || opts.DefaultTopN < 1 || opts.DefaultTopN > opts.MaxTopN {
		return nil, errors.Errorf("invalid options %+v", opts).
			WithOperation("new").WithComponent(component)
	}
	if deps.Weather == nil {
		deps.Weather = weather.NewMockClassifier(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deps: deps, opts: opts, logger: logger.Named(component)}, nil
}

func invalid(err error) error {
	return errors.Wrap(err, "invalid request").
		WithKind(errors.KindInvalidInput).
		WithOperation("discover").
		WithComponent(component)
}

func invalidf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...).
		WithKind(errors.KindInvalidInput).
		WithOperation("discover").
		WithComponent(component)
}

func (s *Service) topN(req Request) (int, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return 0, invalid(err)
	}
	if !req.Location.Valid() {
		return 0, invalidf("invalid location %+v", req.Location)
	}
	if req.TopN == nil {
		return s.opts.DefaultTopN, nil
	}
	if *req.TopN > s.opts.MaxTopN {
		return 0, invalidf("top_n must be at most %d, got %d", s.opts.MaxTopN, *req.TopN)
	}
	return *req.TopN, nil
}

// Discover returns up to top_n relevant and varied restaurants for req.
func (s *Service) Discover(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(errors.KindOf(err))
		}
		metrics.RecordRecommendation(outcome, time.Since(start))
	}()

	n, err := s.topN(req)
	if err != nil {
		return nil, err
	}
	prefs := req.Preferences.Normalize()

	var (
		restaurants []restaurant.Restaurant
		report      *weather.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var fetchErr error
		restaurants, fetchErr = s.deps.Catalog.Restaurants(gctx)
		if fetchErr != nil {
			kind := errors.KindUpstream
			if ctx.Err() != nil {
				kind = errors.KindInternal
			}
			return errors.Wrap(fetchErr, "fetch catalog").
				WithKind(kind).WithOperation("discover").WithComponent(component)
		}
		return nil
	})
	if prefs.Weather == "" {
		g.Go(func() error {
			r, werr := s.deps.Weather.Classify(gctx, req.Location)
			if werr != nil {
				s.logger.Warn("weather lookup failed, scoring without weather", zap.Error(werr))
				return nil
			}
			report = &r
			return nil
		})
	} else {
		metrics.WeatherLookupsTotal.WithLabelValues("request").Inc()
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report != nil {
		prefs.Weather = report.Label
	}

	candidates, err := s.deps.Ranker.Rank(restaurants, prefs, req.Location, s.opts.CandidateLimit)
	if err != nil {
		kind := errors.KindInternal
		if errors.Is(err, scoring.ErrNoResults) {
			kind = errors.KindNoResults
		}
		return nil, errors.Wrap(err, "rank candidates").
			WithKind(kind).WithOperation("discover").WithComponent(component)
	}
	metrics.CandidatesRanked.Observe(float64(len(candidates)))

	table, err := s.table(ctx, restaurants)
	if err != nil {
		return nil, err
	}

	optStart := time.Now()
	result, err := s.deps.Optimizer.Optimize(ctx, candidates, n, table)
	if err != nil {
		return nil, errors.Wrap(err, "optimize selection").
			WithOperation("discover").WithComponent(component)
	}
	stats := result.Stats
	metrics.RecordOptimization(stats.Iterations, stats.AcceptedImprovements,
		stats.ImprovementPercent, string(stats.DiversityMode), time.Since(optStart))

	resp = &Response{
		RequestID:       uuid.NewString(),
		Recommendations: result.Selected,
		Statistics: Statistics{
			TotalEvaluated: len(restaurants),
			Candidates:     len(candidates),
			Algorithm:      Algorithm,
			Stats:          stats,
		},
		Weather: report,
	}

	s.logger.Debug("discover finished",
		zap.String("request_id", resp.RequestID),
		zap.Int("catalog", len(restaurants)),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(resp.Recommendations)),
		zap.String("diversity_mode", string(stats.DiversityMode)),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// table returns the embedding table, or a nil table when embeddings are
// disabled or the build failed. Only cancellation of ctx is an error.
func (s *Service) table(ctx context.Context, restaurants []restaurant.Restaurant) (optimization.Embeddings, error) {
	if s.deps.Embeddings == nil {
		return (*embedding.Table)(nil), nil
	}

	t, err := s.deps.Embeddings.GetOrBuild(ctx, restaurants)
	if err == nil {
		return t, nil
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "build embeddings").
			WithOperation("discover").WithComponent(component)
	}
	metrics.EmbeddingDegradedTotal.Inc()
	s.logger.Warn("embedding table unavailable, using category diversity", zap.Error(err))
	return (*embedding.Table)(nil), nil
}

// Weather classifies the weather at loc.
func (s *Service) Weather(ctx context.Context, loc restaurant.Location) (weather.Report, error) {
	if !loc.Valid() {
		return weather.Report{}, errors.Errorf("invalid location %+v", loc).
			WithKind(errors.KindInvalidInput).WithOperation("weather").WithComponent(component)
	}
	report, err := s.deps.Weather.Classify(ctx, loc)
	if err != nil {
		kind := errors.KindUpstream
		if ctx.Err() != nil {
			kind = errors.KindInternal
		}
		return weather.Report{}, errors.Wrap(err, "classify weather").
			WithKind(kind).WithOperation("weather").WithComponent(component)
	}
	return report, nil
}

// ClearEmbeddings drops the cached embedding table.
func (s *Service) ClearEmbeddings() {
	if s.deps.Embeddings != nil {
		s.deps.Embeddings.Clear()
	}
}

// EmbeddingStats reports the embedding cache state. ok is false when
// embeddings are disabled.
func (s *Service) EmbeddingStats() (stats embedding.Stats, ok bool) {
	if s.deps.Embeddings == nil {
		return embedding.Stats{}, false
	}
	return s.deps.Embeddings.Stats(), true
}
