package annealing

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/restaurant"
)

func TestNewAnnealer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*optimization.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*optimization.Config) {}},
		{name: "cooling rate of one", mutate: func(c *optimization.Config) { c.CoolingRate = 1 }, wantErr: true},
		{name: "zero min temperature", mutate: func(c *optimization.Config) { c.MinTemperature = 0 }, wantErr: true},
		{name: "initial below min", mutate: func(c *optimization.Config) { c.InitialTemperature = 0.05 }, wantErr: true},
		{name: "no iterations", mutate: func(c *optimization.Config) { c.MaxIterations = 0 }, wantErr: true},
		{name: "weights do not sum to one", mutate: func(c *optimization.Config) { c.DiversityWeight = 0.3 }, wantErr: true},
		{name: "empty pool", mutate: func(c *optimization.Config) { c.PoolSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := optimization.DefaultConfig()
			tt.mutate(&cfg)

			a, err := NewAnnealer(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, optimization.ErrInvalidInput)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cfg, a.Config())
		})
	}
}

func TestOptimizeInvalidN(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig())
	require.NoError(t, err)

	_, err = a.Optimize(context.Background(), generateCandidates(5), 0, nil)
	require.Error(t, err)
	_, ok := optimization.IsOptimizationError(err)
	assert.True(t, ok)
}

func TestOptimizeTrivialCase(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(&scriptedSource{}))
	require.NoError(t, err)

	for _, size := range []int{1, 5, 10} {
		candidates := generateCandidates(size)
		// Reverse so we can tell the input order is kept.
		for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		}

		res, err := a.Optimize(context.Background(), candidates, 10, nil)
		require.NoError(t, err)

		assert.Equal(t, candidates, res.Selected)
		assert.Equal(t, 0, res.Stats.Iterations)
		assert.Equal(t, 0, res.Stats.AcceptedImprovements)
		assert.Equal(t, res.Stats.InitialEnergy, res.Stats.FinalEnergy)
		assert.Equal(t, []float64{res.Stats.InitialEnergy}, res.Stats.EnergyTrajectory)
		assert.Equal(t, 0.0, res.Stats.ImprovementPercent)
	}
}

func TestOptimizeDefaultTermination(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(rand.New(rand.NewSource(42))))
	require.NoError(t, err)

	res, err := a.Optimize(context.Background(), generateCandidates(25), 10, nil)
	require.NoError(t, err)

	// 100 * 0.95^k <= 0.1 first holds at k = 135.
	assert.Equal(t, 135, res.Stats.Iterations)
	assert.Len(t, res.Stats.EnergyTrajectory, res.Stats.Iterations+1)
	assert.Equal(t, res.Stats.InitialEnergy, res.Stats.EnergyTrajectory[0])
	assert.Equal(t, optimization.DiversityCategory, res.Stats.DiversityMode)
	assert.Equal(t, 20, res.Stats.PoolSize)
}

func TestOptimizeMaxIterationsBound(t *testing.T) {
	cfg := optimization.DefaultConfig()
	cfg.MaxIterations = 7
	a, err := NewAnnealer(cfg, WithSource(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	res, err := a.Optimize(context.Background(), generateCandidates(25), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Stats.Iterations)
	assert.Len(t, res.Stats.EnergyTrajectory, 8)
}

func TestOptimizeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	table := generateRandomTable(rng, 40, 16)

	for seed := int64(1); seed <= 20; seed++ {
		for _, tc := range []struct {
			count, n int
			table    optimization.Embeddings
		}{
			{count: 25, n: 10, table: nil},
			{count: 40, n: 5, table: table},
			{count: 21, n: 20, table: table},
			{count: 30, n: 3, table: mapTable{}},
		} {
			a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(rand.New(rand.NewSource(seed))))
			require.NoError(t, err)

			candidates := generateCandidates(tc.count)
			res, err := a.Optimize(context.Background(), candidates, tc.n, tc.table)
			require.NoError(t, err)

			assertDistinctFromPool(t, res.Selected, tc.n, candidates[:20])
			assert.LessOrEqual(t, res.Stats.FinalEnergy, res.Stats.InitialEnergy)
			assert.GreaterOrEqual(t, res.Stats.ImprovementPercent, 0.0)
			assert.GreaterOrEqual(t, res.Stats.Iterations, 1)
			assert.LessOrEqual(t, res.Stats.Iterations, 300)
			for i := 1; i < len(res.Selected); i++ {
				assert.GreaterOrEqual(t, res.Selected[i-1].Score, res.Selected[i].Score)
			}
		}
	}
}

func TestOptimizePoolGrowsWithN(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(rand.New(rand.NewSource(3))))
	require.NoError(t, err)

	candidates := generateCandidates(40)
	res, err := a.Optimize(context.Background(), candidates, 25, nil)
	require.NoError(t, err)

	assert.Equal(t, 25, res.Stats.PoolSize)
	assertDistinctFromPool(t, res.Selected, 25, candidates[:25])
}

func TestOptimizeDoesNotMutateCandidates(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	candidates := generateCandidates(25)
	rand.New(rand.NewSource(9)).Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	before := append([]restaurant.Scored(nil), candidates...)

	_, err = a.Optimize(context.Background(), candidates, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, before, candidates)
}

func TestOptimizeScriptedImprovement(t *testing.T) {
	// Pool of 3 with n=2. The only category diversity comes from id 3, so
	// swapping id 2 for id 3 is a strict improvement.
	candidates := []restaurant.Scored{
		{Restaurant: restaurant.Restaurant{ID: 1, Categories: []restaurant.Category{{Name: "tacos"}}}, Score: 0.9},
		{Restaurant: restaurant.Restaurant{ID: 2, Categories: []restaurant.Category{{Name: "tacos"}}}, Score: 0.9},
		{Restaurant: restaurant.Restaurant{ID: 3, Categories: []restaurant.Category{{Name: "postres"}}}, Score: 0.9},
	}

	cfg := optimization.DefaultConfig()
	cfg.MaxIterations = 1
	src := &scriptedSource{ints: []int{1, 0}}
	a, err := NewAnnealer(cfg, WithSource(src))
	require.NoError(t, err)

	res, err := a.Optimize(context.Background(), candidates, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.Iterations)
	assert.Equal(t, 1, res.Stats.AcceptedImprovements)
	assert.ElementsMatch(t, []int{1, 3}, restaurant.IDs(res.Selected))

	initial := -(0.8*0.9 + 0.2*0.1)
	final := -(0.8*0.9 + 0.2*0.2)
	assert.InDelta(t, initial, res.Stats.InitialEnergy, 1e-12)
	assert.InDelta(t, final, res.Stats.FinalEnergy, 1e-12)
	assert.InDelta(t, (initial-final)/math.Abs(initial)*100, res.Stats.ImprovementPercent, 1e-9)
	assert.Equal(t, 0, src.fi, "strict improvements must not draw an acceptance value")
}

func TestOptimizeRejectsWorseMove(t *testing.T) {
	// Swapping id 3 out for id 2 only lowers diversity; a draw of 0.999
	// rejects it at low temperature.
	candidates := []restaurant.Scored{
		{Restaurant: restaurant.Restaurant{ID: 1, Categories: []restaurant.Category{{Name: "tacos"}}}, Score: 0.9},
		{Restaurant: restaurant.Restaurant{ID: 3, Categories: []restaurant.Category{{Name: "postres"}}}, Score: 0.9},
		{Restaurant: restaurant.Restaurant{ID: 2, Categories: []restaurant.Category{{Name: "tacos"}}}, Score: 0.9},
	}

	cfg := optimization.DefaultConfig()
	cfg.InitialTemperature = 0.2
	cfg.MaxIterations = 1
	src := &scriptedSource{ints: []int{1, 0}, floats: []float64{0.999}}
	a, err := NewAnnealer(cfg, WithSource(src))
	require.NoError(t, err)

	res, err := a.Optimize(context.Background(), candidates, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Stats.AcceptedImprovements)
	assert.ElementsMatch(t, []int{1, 3}, restaurant.IDs(res.Selected))
	assert.Equal(t, res.Stats.InitialEnergy, res.Stats.FinalEnergy)
	assert.Equal(t, []float64{res.Stats.InitialEnergy, res.Stats.InitialEnergy}, res.Stats.EnergyTrajectory)
	assert.Equal(t, 1, src.fi)
}

func TestOptimizeSemanticDiversity(t *testing.T) {
	// Ids 1 and 2 point the same way; id 3 is orthogonal. Any run should end
	// on a pair containing id 3.
	candidates := generateCandidates(3)
	table := mapTable{1: {1, 0}, 2: {1, 0}, 3: {0, 1}}

	cfg := optimization.DefaultConfig()
	cfg.RelevanceWeight = 0.5
	cfg.DiversityWeight = 0.5
	a, err := NewAnnealer(cfg, WithSource(rand.New(rand.NewSource(11))))
	require.NoError(t, err)

	res, err := a.Optimize(context.Background(), candidates, 2, table)
	require.NoError(t, err)

	assert.Equal(t, optimization.DiversitySemantic, res.Stats.DiversityMode)
	assert.Contains(t, restaurant.IDs(res.Selected), 3)
	assert.Less(t, res.Stats.FinalEnergy, res.Stats.InitialEnergy)
}

func TestOptimizeCancelledContext(t *testing.T) {
	a, err := NewAnnealer(optimization.DefaultConfig(), WithSource(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Optimize(ctx, generateCandidates(25), 10, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Stats.Iterations)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, restaurant.IDs(res.Selected))
}
