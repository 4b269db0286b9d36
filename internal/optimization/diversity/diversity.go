// Package diversity measures how different the restaurants of a subset are.
package diversity

import (
	"math"
	"strings"

	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/optimization/similarity"
	"github.com/quovi/discover/internal/restaurant"
)

// MaxCategories is the distinct-category count that maps to full diversity.
const MaxCategories = 10

// Evaluator computes a [0,1] diversity measure for a set of restaurants.
type Evaluator struct {
	kernel similarity.Kernel
}

// NewEvaluator returns an evaluator using cosine similarity.
func NewEvaluator() *Evaluator {
	return &Evaluator{kernel: similarity.CosineKernel{}}
}

// Mode picks semantic diversity when table holds vectors for at least two of
// ids, and category diversity otherwise.
func (e *Evaluator) Mode(ids []int, table optimization.Embeddings) optimization.DiversityMode {
	if table == nil || table.Len() == 0 {
		return optimization.DiversityCategory
	}
	covered := 0
	for _, id := range ids {
		if _, ok := table.Vector(id); ok {
			covered++
			if covered >= 2 {
				return optimization.DiversitySemantic
			}
		}
	}
	return optimization.DiversityCategory
}

// Evaluate measures items with the mode Mode would choose for them.
func (e *Evaluator) Evaluate(items []restaurant.Scored, table optimization.Embeddings) float64 {
	return e.EvaluateMode(items, table, e.Mode(restaurant.IDs(items), table))
}

// EvaluateMode measures items with an explicit mode, so a caller can keep the
// mode fixed across many evaluations.
func (e *Evaluator) EvaluateMode(items []restaurant.Scored, table optimization.Embeddings, mode optimization.DiversityMode) float64 {
	if len(items) < 2 {
		return 0
	}
	if mode == optimization.DiversitySemantic && table != nil {
		return e.Semantic(restaurant.IDs(items), table)
	}
	return Categorical(items)
}

// Semantic averages 1-cosine over every unordered pair of ids that both have
// a vector of the same length. Pairs without vectors are skipped.
func (e *Evaluator) Semantic(ids []int, table optimization.Embeddings) float64 {
	if len(ids) < 2 || table == nil {
		return 0
	}

	vectors := make([][]float64, 0, len(ids))
	for _, id := range ids {
		if v, ok := table.Vector(id); ok {
			vectors = append(vectors, v)
		}
	}

	sum := 0.0
	pairs := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim, err := e.kernel.Eval(vectors[i], vectors[j])
			if err != nil {
				continue
			}
			sum += 1 - sim
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	// Opposite vectors give a distance of 2.
	return clip(sum / float64(pairs))
}

// Categorical counts distinct category labels across items, normalized by
// MaxCategories and clipped to [0,1]. Labels compare case-insensitively.
func Categorical(items []restaurant.Scored) float64 {
	if len(items) < 2 {
		return 0
	}
	seen := make(map[string]struct{})
	for _, it := range items {
		for _, c := range it.Categories {
			name := strings.ToLower(strings.TrimSpace(c.Name))
			if name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	return clip(float64(len(seen)) / MaxCategories)
}

func clip(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
