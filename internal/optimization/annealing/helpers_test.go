package annealing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/quovi/discover/internal/restaurant"
)

// scriptedSource replays fixed values, cycling when exhausted.
type scriptedSource struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.999
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	return v % n
}

// mapTable is an in-memory embedding table.
type mapTable map[int][]float64

func (m mapTable) Len() int { return len(m) }

func (m mapTable) Vector(id int) ([]float64, bool) {
	v, ok := m[id]
	return v, ok
}

// generateCandidates returns count candidates with strictly decreasing scores
// and one distinct category each.
func generateCandidates(count int) []restaurant.Scored {
	out := make([]restaurant.Scored, count)
	for i := range out {
		out[i] = restaurant.Scored{
			Restaurant: restaurant.Restaurant{
				ID:         i + 1,
				Name:       fmt.Sprintf("restaurant-%d", i+1),
				Categories: []restaurant.Category{{Name: fmt.Sprintf("category-%d", i%12)}},
			},
			Score: 1 - float64(i)*0.01,
		}
	}
	return out
}

// generateRandomTable returns a random table of dim-sized vectors for ids 1..count.
func generateRandomTable(rng *rand.Rand, count, dim int) mapTable {
	table := make(mapTable, count)
	for id := 1; id <= count; id++ {
		v := make([]float64, dim)
		for j := range v {
			v[j] = rng.Float64()*2 - 1
		}
		table[id] = v
	}
	return table
}

// assertDistinctFromPool checks that selected has n distinct ids, all from pool.
func assertDistinctFromPool(t *testing.T, selected []restaurant.Scored, n int, pool []restaurant.Scored) {
	t.Helper()

	if len(selected) != n {
		t.Fatalf("selected %d restaurants, want %d", len(selected), n)
	}

	allowed := make(map[int]bool, len(pool))
	for _, p := range pool {
		allowed[p.ID] = true
	}
	seen := make(map[int]bool, n)
	for _, s := range selected {
		if seen[s.ID] {
			t.Fatalf("duplicate restaurant id %d", s.ID)
		}
		if !allowed[s.ID] {
			t.Fatalf("restaurant id %d is outside the candidate pool", s.ID)
		}
		seen[s.ID] = true
	}
}
