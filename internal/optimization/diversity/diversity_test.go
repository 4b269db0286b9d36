package diversity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quovi/discover/internal/optimization"
	"github.com/quovi/discover/internal/restaurant"
)

type mapTable map[int][]float64

func (m mapTable) Len() int { return len(m) }

func (m mapTable) Vector(id int) ([]float64, bool) {
	v, ok := m[id]
	return v, ok
}

func item(id int, categories ...string) restaurant.Scored {
	r := restaurant.Restaurant{ID: id}
	for _, c := range categories {
		r.Categories = append(r.Categories, restaurant.Category{Name: c})
	}
	return restaurant.Scored{Restaurant: r}
}

func TestCategorical(t *testing.T) {
	tests := []struct {
		name     string
		items    []restaurant.Scored
		expected float64
	}{
		{name: "single item", items: []restaurant.Scored{item(1, "Tacos", "Mariscos")}, expected: 0},
		{name: "shared labels", items: []restaurant.Scored{item(1, "Tacos"), item(2, "tacos "), item(3, "TACOS")}, expected: 0.1},
		{name: "distinct labels", items: []restaurant.Scored{item(1, "Tacos", "Pizza"), item(2, "Sushi")}, expected: 0.3},
		{name: "empty labels ignored", items: []restaurant.Scored{item(1, ""), item(2, "  ")}, expected: 0},
		{
			name: "clipped at one",
			items: []restaurant.Scored{
				item(1, "a", "b", "c", "d", "e", "f"),
				item(2, "g", "h", "i", "j", "k", "l"),
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Categorical(tt.items), 1e-12)
		})
	}
}

func TestSemantic(t *testing.T) {
	e := NewEvaluator()
	table := mapTable{
		1: {1, 0},
		2: {0, 1},
		3: {1, 0},
		4: {0, 0},
		5: {1, 0, 0},
	}

	tests := []struct {
		name     string
		ids      []int
		expected float64
	}{
		{name: "fewer than two ids", ids: []int{1}, expected: 0},
		{name: "orthogonal pair", ids: []int{1, 2}, expected: 1},
		{name: "identical pair", ids: []int{1, 3}, expected: 0},
		{name: "three vectors", ids: []int{1, 2, 3}, expected: 2.0 / 3.0},
		{name: "zero vector counts as dissimilar", ids: []int{1, 4}, expected: 1},
		{name: "missing ids skipped", ids: []int{1, 2, 99}, expected: 1},
		{name: "length mismatch skipped", ids: []int{1, 5}, expected: 0},
		{name: "no covered pair", ids: []int{98, 99}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, e.Semantic(tt.ids, table), 1e-12)
		})
	}
}

func TestMode(t *testing.T) {
	e := NewEvaluator()
	table := mapTable{1: {1, 0}, 2: {0, 1}}

	assert.Equal(t, optimization.DiversityCategory, e.Mode([]int{1, 2}, nil))
	assert.Equal(t, optimization.DiversityCategory, e.Mode([]int{1, 2}, mapTable{}))
	assert.Equal(t, optimization.DiversityCategory, e.Mode([]int{1, 3}, table))
	assert.Equal(t, optimization.DiversitySemantic, e.Mode([]int{1, 2, 3}, table))
}

func TestEvaluateFallsBackToCategories(t *testing.T) {
	e := NewEvaluator()
	items := []restaurant.Scored{item(1, "Tacos"), item(2, "Pizza")}

	assert.InDelta(t, 0.2, e.Evaluate(items, nil), 1e-12)
	assert.InDelta(t, 0.2, e.Evaluate(items, mapTable{}), 1e-12)
	assert.InDelta(t, 1.0, e.Evaluate(items, mapTable{1: {1, 0}, 2: {0, 1}}), 1e-12)
	assert.InDelta(t, 0.2, e.EvaluateMode(items, mapTable{1: {1, 0}, 2: {0, 1}}, optimization.DiversityCategory), 1e-12)
}
