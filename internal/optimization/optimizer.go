package optimization

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/quovi/discover/internal/restaurant"
)

// Optimizer selects a fixed-size subset of ranked candidates.
type Optimizer interface {
	// Optimize returns n candidates chosen from candidates. table may be nil.
	Optimize(ctx context.Context, candidates []restaurant.Scored, n int, table Embeddings) (*Result, error)
}

// Embeddings is a read-only view of restaurant vectors keyed by restaurant id.
type Embeddings interface {
	// Len returns the number of vectors.
	Len() int
	// Vector returns the vector of id and whether it exists.
	Vector(id int) ([]float64, bool)
}

// DiversityMode names how a subset's diversity was measured.
type DiversityMode string

const (
	// DiversitySemantic averages pairwise cosine distance of embeddings.
	DiversitySemantic DiversityMode = "semantic"
	// DiversityCategory counts distinct category labels.
	DiversityCategory DiversityMode = "category"
)

// Source is the random source used for neighbor selection and acceptance draws.
// *rand.Rand satisfies it. Implementations need not be safe for concurrent use.
type Source interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// Intn returns a uniform value in [0,n).
	Intn(n int) int
}

var seedCounter atomic.Int64

// NewSource returns a non-cryptographic source. A zero seed picks a time based
// seed that differs between calls made in the same nanosecond.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano() + seedCounter.Add(1)
	}
	return rand.New(rand.NewSource(seed))
}

// Config holds the simulated annealing parameters.
type Config struct {
	// Starting temperature
	InitialTemperature float64 `json:"initial_temperature" yaml:"initial_temperature"`

	// The run stops once the temperature drops to this value
	MinTemperature float64 `json:"min_temperature" yaml:"min_temperature"`

	// Factor applied to the temperature after every iteration
	CoolingRate float64 `json:"cooling_rate" yaml:"cooling_rate"`

	// Hard bound on the number of iterations
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Weights of mean relevance and diversity in the energy; they sum to 1
	RelevanceWeight float64 `json:"relevance_weight" yaml:"relevance_weight"`
	DiversityWeight float64 `json:"diversity_weight" yaml:"diversity_weight"`

	// Number of top candidates the search may draw from
	PoolSize int `json:"pool_size" yaml:"pool_size"`
}

// DefaultConfig returns the default annealing parameters.
func DefaultConfig() Config {
	return Config{
		InitialTemperature: 100.0,
		MinTemperature:     0.1,
		CoolingRate:        0.95,
		MaxIterations:      300,
		RelevanceWeight:    0.80,
		DiversityWeight:    0.20,
		PoolSize:           20,
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	const op = "validate"
	switch {
	case !(c.MinTemperature > 0):
		return NewErrorf("min temperature must be positive, got %v", c.MinTemperature).WithOperation(op).WithComponent("config")
	case !(c.InitialTemperature > c.MinTemperature) || math.IsInf(c.InitialTemperature, 0):
		return NewErrorf("initial temperature %v must be finite and above min temperature %v", c.InitialTemperature, c.MinTemperature).WithOperation(op).WithComponent("config")
	case !(c.CoolingRate > 0 && c.CoolingRate < 1):
		return NewErrorf("cooling rate must be in (0,1), got %v", c.CoolingRate).WithOperation(op).WithComponent("config")
	case c.MaxIterations < 1:
		return NewErrorf("max iterations must be at least 1, got %d", c.MaxIterations).WithOperation(op).WithComponent("config")
	case c.PoolSize < 1:
		return NewErrorf("pool size must be at least 1, got %d", c.PoolSize).WithOperation(op).WithComponent("config")
	case !(c.RelevanceWeight >= 0 && c.DiversityWeight >= 0):
		return NewError("relevance and diversity weights must not be negative").WithOperation(op).WithComponent("config")
	case math.Abs(c.RelevanceWeight+c.DiversityWeight-1) > 1e-6:
		return NewErrorf("relevance and diversity weights must sum to 1, got %v", c.RelevanceWeight+c.DiversityWeight).WithOperation(op).WithComponent("config")
	}
	return nil
}

// Stats describes one optimization run.
type Stats struct {
	Iterations           int           `json:"iterations"`
	AcceptedImprovements int           `json:"accepted_improvements"`
	InitialEnergy        float64       `json:"initial_energy"`
	FinalEnergy          float64       `json:"final_energy"`
	ImprovementPercent   float64       `json:"improvement_percent"`
	EnergyTrajectory     []float64     `json:"energy_trajectory"`
	DiversityMode        DiversityMode `json:"diversity_mode"`
	PoolSize             int           `json:"pool_size"`
}

// ImprovementPercent returns (initial-best)/|initial|*100, or 0 when initial is 0.
func ImprovementPercent(initial, best float64) float64 {
	if initial == 0 {
		return 0
	}
	return (initial - best) / math.Abs(initial) * 100
}

// Result contains the selected candidates and the statistics of the run.
type Result struct {
	Selected []restaurant.Scored `json:"selected"`
	Stats    Stats               `json:"statistics"`
}
