package scoring

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/quovi/discover/internal/restaurant"
)

// Weights is the convex combination applied to the five sub-scores.
type Weights struct {
	Craving  float64 `json:"craving" yaml:"craving"`
	Occasion float64 `json:"occasion" yaml:"occasion"`
	Distance float64 `json:"distance" yaml:"distance"`
	Budget   float64 `json:"budget" yaml:"budget"`
	Weather  float64 `json:"weather" yaml:"weather"`
}

// DefaultWeights returns the recommended weighting.
func DefaultWeights() Weights {
	return Weights{
		Craving:  0.50,
		Occasion: 0.20,
		Distance: 0.15,
		Budget:   0.10,
		Weather:  0.05,
	}
}

const weightTolerance = 1e-6

// Validate checks that every weight is in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	parts := []float64{w.Craving, w.Occasion, w.Distance, w.Budget, w.Weather}
	sum := 0.0
	for _, p := range parts {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("invalid weights %+v: each weight must be in [0,1]", w)
		}
		sum += p
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("invalid weights %+v: sum is %.6f, want 1", w, sum)
	}
	return nil
}

func (w Weights) combine(b restaurant.Breakdown) float64 {
	return w.Craving*b.Craving +
		w.Occasion*b.Occasion +
		w.Distance*b.Distance +
		w.Budget*b.Budget +
		w.Weather*b.Weather
}

// Scorer rates restaurants against user preferences. It is stateless apart
// from its weights and safe for concurrent use.
type Scorer struct {
	weights Weights
	logger  *zap.Logger
}

// NewScorer creates a scorer with the given weights. A nil logger disables logging.
func NewScorer(weights Weights, logger *zap.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{weights: weights, logger: logger.Named("scorer")}, nil
}

// Weights returns the weights used by the scorer.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns a scored copy of r. prefs is expected to be normalized.
func (s *Scorer) Score(r restaurant.Restaurant, prefs restaurant.Preferences, loc restaurant.Location) restaurant.Scored {
	km := Distance(loc, r.Location())
	b := restaurant.Breakdown{
		Craving:  CravingScore(r, prefs.Craving),
		Occasion: OccasionScore(r, prefs.Occasion),
		Distance: DistanceScore(km, prefs.Distance),
		Budget:   BudgetScore(r.AvgPrice, prefs.Budget),
		Weather:  WeatherScore(r, prefs.Weather),
	}
	score := math.Min(1, math.Max(0, s.weights.combine(b)))

	s.logger.Debug("scored restaurant",
		zap.Int("restaurant_id", r.ID),
		zap.Float64("score", score),
		zap.Float64("distance_km", km),
	)

	return restaurant.Scored{
		Restaurant: r,
		Score:      score,
		DistanceKm: km,
		Breakdown:  b,
	}
}
