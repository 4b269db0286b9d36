package acceptance

import (
	"math"

	"github.com/quovi/discover/internal/optimization"
)

// Metropolis implements the Metropolis acceptance criterion for a
// minimization problem.
type Metropolis struct {
	rng optimization.Source
}

// NewMetropolis creates a criterion drawing from rng.
func NewMetropolis(rng optimization.Source) *Metropolis {
	return &Metropolis{rng: rng}
}

// Probability returns the probability of moving to a state whose energy
// differs from the current one by delta at the given temperature.
func Probability(delta, temperature float64) float64 {
	if delta < 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

// Accept decides whether to move. Strict improvements are accepted without
// drawing from the random source.
func (m *Metropolis) Accept(delta, temperature float64) bool {
	if delta < 0 {
		return true
	}
	return m.rng.Float64() < Probability(delta, temperature)
}
