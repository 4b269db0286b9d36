// Package annealing selects a relevant and diverse top-N subset of ranked
// candidates with simulated annealing.
package annealing

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/optimization/acceptance"
	"github.com/quovi/discover/internal/optimization/diversity"
	"github.com/quovi/discover/internal/restaurant"
)

// Option configures an Annealer.
type Option func(*Annealer)

// WithSource makes every run draw from src. The source is shared between
// runs, so it must be safe for concurrent use if Optimize is.
func WithSource(src optimization.Source) Option {
	return func(a *Annealer) {
		a.newSource = func() optimization.Source { return src }
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Annealer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Annealer implements optimization.Optimizer with simulated annealing.
type Annealer struct {
	// Configuration
	config optimization.Config

	// Diversity measure used by the energy function
	evaluator *diversity.Evaluator

	// Creates the random source of a run
	newSource func() optimization.Source

	logger *zap.Logger
}

var _ optimization.Optimizer = (*Annealer)(nil)

// NewAnnealer creates a new Annealer.
func NewAnnealer(config optimization.Config, opts ...Option) (*Annealer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Annealer{
		config:    config,
		evaluator: diversity.NewEvaluator(),
		newSource: func() optimization.Source { return optimization.NewSource(0) },
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("annealer")
	return a, nil
}

// Config returns the annealing parameters.
func (a *Annealer) Config() optimization.Config {
	return a.config
}

// run holds the state of one Optimize call.
type run struct {
	config    optimization.Config
	evaluator *diversity.Evaluator
	table     optimization.Embeddings
	mode      optimization.DiversityMode
	pool      []restaurant.Scored
}

// energy is the negated weighted sum of mean relevance and diversity of the
// pool members at the given indices.
func (r *run) energy(solution []int) float64 {
	items := r.items(solution)
	scores := make([]float64, len(items))
	for i, it := range items {
		scores[i] = it.Score
	}
	mean := 0.0
	if len(scores) > 0 {
		mean = floats.Sum(scores) / float64(len(scores))
	}
	div := r.evaluator.EvaluateMode(items, r.table, r.mode)
	return -(r.config.RelevanceWeight*mean + r.config.DiversityWeight*div)
}

func (r *run) items(solution []int) []restaurant.Scored {
	items := make([]restaurant.Scored, len(solution))
	for i, idx := range solution {
		items[i] = r.pool[idx]
	}
	return items
}

// Optimize returns n candidates chosen among the top PoolSize candidates
// (or n, if larger). When there are no more than n candidates they are
// returned unchanged with a zero-iteration record.
//
// The loop runs until the temperature reaches MinTemperature or
// MaxIterations is hit. If ctx is cancelled first, the best solution found
// so far is returned together with ctx.Err().
func (a *Annealer) Optimize(ctx context.Context, candidates []restaurant.Scored, n int, table optimization.Embeddings) (*optimization.Result, error) {
	if n < 1 {
		return nil, optimization.NewErrorf("n must be at least 1, got %d", n).WithOperation("optimize").WithComponent("annealer")
	}

	if len(candidates) <= n {
		return a.trivial(candidates, table), nil
	}

	pool := make([]restaurant.Scored, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	poolSize := max(a.config.PoolSize, n)
	if poolSize < len(pool) {
		pool = pool[:poolSize]
	}

	r := &run{
		config:    a.config,
		evaluator: a.evaluator,
		table:     table,
		mode:      a.evaluator.Mode(restaurant.IDs(pool), table),
		pool:      pool,
	}
	if r.mode == optimization.DiversityCategory && table != nil && table.Len() > 0 {
		a.logger.Warn("embeddings do not cover the candidate pool, using category diversity",
			zap.Int("pool_size", len(pool)),
			zap.Int("table_size", table.Len()),
		)
	}

	rng := a.newSource()
	metropolis := acceptance.NewMetropolis(rng)

	// Initial solution: the top n of the pool.
	current := make([]int, n)
	inSolution := make([]bool, len(pool))
	for i := range current {
		current[i] = i
		inSolution[i] = true
	}
	currentEnergy := r.energy(current)
	best := append([]int(nil), current...)
	bestEnergy := currentEnergy

	stats := optimization.Stats{
		InitialEnergy:    currentEnergy,
		EnergyTrajectory: make([]float64, 1, a.config.MaxIterations+1),
		DiversityMode:    r.mode,
		PoolSize:         len(pool),
	}
	stats.EnergyTrajectory[0] = currentEnergy

	outside := make([]int, 0, len(pool))
	temperature := a.config.InitialTemperature
	var err error

	for temperature > a.config.MinTemperature && stats.Iterations < a.config.MaxIterations {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			break
		}

		// Neighbor: replace one random slot with a random pool member that is
		// not in the solution.
		neighbor := append([]int(nil), current...)
		slot := rng.Intn(n)
		outside = outside[:0]
		for idx, in := range inSolution {
			if !in {
				outside = append(outside, idx)
			}
		}
		if len(outside) > 0 {
			neighbor[slot] = outside[rng.Intn(len(outside))]
		}

		neighborEnergy := r.energy(neighbor)
		delta := neighborEnergy - currentEnergy

		if delta < 0 {
			stats.AcceptedImprovements++
		}
		if metropolis.Accept(delta, temperature) {
			inSolution[current[slot]] = false
			inSolution[neighbor[slot]] = true
			current = neighbor
			currentEnergy = neighborEnergy

			if currentEnergy < bestEnergy {
				best = append(best[:0], current...)
				bestEnergy = currentEnergy
			}
		}

		temperature *= a.config.CoolingRate
		stats.Iterations++
		stats.EnergyTrajectory = append(stats.EnergyTrajectory, currentEnergy)
	}

	stats.FinalEnergy = bestEnergy
	stats.ImprovementPercent = optimization.ImprovementPercent(stats.InitialEnergy, bestEnergy)

	selected := r.items(best)
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score > selected[j].Score })

	logFields := []zap.Field{
		zap.Int("candidates", len(candidates)),
		zap.Int("n", n),
		zap.Int("iterations", stats.Iterations),
		zap.Int("accepted_improvements", stats.AcceptedImprovements),
		zap.Float64("initial_energy", stats.InitialEnergy),
		zap.Float64("final_energy", stats.FinalEnergy),
		zap.String("diversity_mode", string(stats.DiversityMode)),
	}
	if err != nil {
		a.logger.Warn("annealing interrupted", append(logFields, zap.Error(err))...)
	} else {
		a.logger.Debug("annealing finished", logFields...)
	}

	return &optimization.Result{Selected: selected, Stats: stats}, err
}

// trivial handles len(candidates) <= n: nothing to search.
func (a *Annealer) trivial(candidates []restaurant.Scored, table optimization.Embeddings) *optimization.Result {
	selected := make([]restaurant.Scored, len(candidates))
	copy(selected, candidates)

	r := &run{
		config:    a.config,
		evaluator: a.evaluator,
		table:     table,
		mode:      a.evaluator.Mode(restaurant.IDs(selected), table),
		pool:      selected,
	}
	solution := make([]int, len(selected))
	for i := range solution {
		solution[i] = i
	}
	e := r.energy(solution)

	return &optimization.Result{
		Selected: selected,
		Stats: optimization.Stats{
			InitialEnergy:    e,
			FinalEnergy:      e,
			EnergyTrajectory: []float64{e},
			DiversityMode:    r.mode,
			PoolSize:         len(selected),
		},
	}
}
