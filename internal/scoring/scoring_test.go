package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quovi/discover/internal/restaurant"
)

var cdmx = restaurant.Location{Latitude: 19.4326, Longitude: -99.1332}

func newTestRestaurant(id int, categories []string, features []string, price float64) restaurant.Restaurant {
	r := restaurant.Restaurant{
		ID:        id,
		Name:      "Restaurante",
		AvgPrice:  price,
		Latitude:  cdmx.Latitude,
		Longitude: cdmx.Longitude,
	}
	for _, c := range categories {
		r.Categories = append(r.Categories, restaurant.Category{Name: c})
	}
	for _, f := range features {
		r.Features = append(r.Features, restaurant.Feature{Name: f})
	}
	return r
}

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{name: "same point", lat1: 19.4326, lon1: -99.1332, lat2: 19.4326, lon2: -99.1332, want: 0, tol: 0},
		{name: "antipodal", lat1: 0, lon1: 0, lat2: 0, lon2: 180, want: math.Pi * EarthRadiusKm, tol: 1e-6},
		{name: "poles", lat1: 90, lon1: 0, lat2: -90, lon2: 0, want: math.Pi * EarthRadiusKm, tol: 1e-6},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: math.Pi * EarthRadiusKm / 180, tol: 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tol)
			assert.InDelta(t, got, HaversineKm(tt.lat2, tt.lon2, tt.lat1, tt.lon1), 1e-9, "distance must be symmetric")
		})
	}
}

func TestCravingScore(t *testing.T) {
	tests := []struct {
		name    string
		r       restaurant.Restaurant
		craving restaurant.Craving
		want    float64
	}{
		{name: "sweet category", r: newTestRestaurant(1, []string{"Postres"}, nil, 100), craving: restaurant.CravingSweet, want: 1},
		{name: "sweet accent folded", r: newTestRestaurant(1, []string{"Panadería"}, nil, 100), craving: restaurant.CravingSweet, want: 1},
		{name: "sweet from description", r: restaurant.Restaurant{Name: "La Esquina", Description: "Helados artesanales"}, craving: restaurant.CravingSweet, want: 1},
		{name: "sweet mismatch", r: newTestRestaurant(1, []string{"Tacos"}, nil, 100), craving: restaurant.CravingSweet, want: 0},
		{name: "savory from name", r: restaurant.Restaurant{Name: "Pizzeria Roma"}, craving: restaurant.CravingSavory, want: 1},
		{name: "savory mismatch", r: newTestRestaurant(1, []string{"Cafetería"}, nil, 100), craving: restaurant.CravingSavory, want: 0},
		{name: "both is neutral", r: newTestRestaurant(1, []string{"Tacos"}, nil, 100), craving: restaurant.CravingBoth, want: 0.7},
		{name: "unrecognized", r: newTestRestaurant(1, []string{"Tacos"}, nil, 100), craving: "spicy", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CravingScore(tt.r, tt.craving))
		})
	}
}

func TestOccasionScore(t *testing.T) {
	tests := []struct {
		name     string
		features []string
		occasion restaurant.Occasion
		want     float64
	}{
		{name: "date romantic", features: []string{"Romántico"}, occasion: restaurant.OccasionDate, want: 1},
		{name: "date noisy", features: []string{"Ruidoso"}, occasion: restaurant.OccasionDate, want: 0.2},
		{name: "date plain", features: []string{"Wifi"}, occasion: restaurant.OccasionDate, want: 0.6},
		{name: "friends lively", features: []string{"Animado"}, occasion: restaurant.OccasionFriends, want: 1},
		{name: "friends plain", features: nil, occasion: restaurant.OccasionFriends, want: 0.7},
		{name: "alone wifi", features: []string{"WiFi gratis"}, occasion: restaurant.OccasionAlone, want: 1},
		{name: "family buffet", features: []string{"Buffet"}, occasion: restaurant.OccasionFamily, want: 1},
		{name: "family plain", features: []string{"Bar"}, occasion: restaurant.OccasionFamily, want: 0.7},
		{name: "unrecognized", features: []string{"Bar"}, occasion: "business", want: 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRestaurant(1, nil, tt.features, 100)
			assert.Equal(t, tt.want, OccasionScore(r, tt.occasion))
		})
	}
}

func TestDistanceScore(t *testing.T) {
	tests := []struct {
		pref restaurant.DistancePreference
		km   float64
		want float64
	}{
		{restaurant.DistanceNear, 0, 1},
		{restaurant.DistanceNear, 2, 1},
		{restaurant.DistanceNear, 4.9, 0.5},
		{restaurant.DistanceNear, 5.1, 0.1},
		{restaurant.DistanceExplore, 1.5, 0.7},
		{restaurant.DistanceExplore, 2, 1},
		{restaurant.DistanceExplore, 8, 1},
		{restaurant.DistanceExplore, 8.5, 0.3},
		{restaurant.DistanceFar, 9, 1},
		{restaurant.DistanceFar, 6, 0.7},
		{restaurant.DistanceFar, 3, 0.3},
		{"anywhere", 3, 0.7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DistanceScore(tt.km, tt.pref), "%s at %.1f km", tt.pref, tt.km)
	}
}

func TestBudgetScore(t *testing.T) {
	tests := []struct {
		budget restaurant.Budget
		price  float64
		want   float64
	}{
		{restaurant.BudgetLow, 100, 1},
		{restaurant.BudgetLow, 200, 0.4},
		{restaurant.BudgetLow, 300, 0},
		{restaurant.BudgetMedium, 100, 0.6},
		{restaurant.BudgetMedium, 150, 1},
		{restaurant.BudgetMedium, 400, 1},
		{restaurant.BudgetMedium, 450, 0.3},
		{restaurant.BudgetHigh, 500, 1},
		{restaurant.BudgetHigh, 350, 0.7},
		{restaurant.BudgetHigh, 200, 0.3},
		{"free", 200, 0.7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BudgetScore(tt.price, tt.budget), "%s at %.0f", tt.budget, tt.price)
	}
}

func TestWeatherScore(t *testing.T) {
	terrace := newTestRestaurant(1, nil, []string{"Terraza"}, 100)
	cozy := newTestRestaurant(2, nil, []string{"Interior acogedor"}, 100)

	assert.Equal(t, 1.0, WeatherScore(terrace, restaurant.WeatherSunny))
	assert.Equal(t, 0.7, WeatherScore(cozy, restaurant.WeatherSunny))
	assert.Equal(t, 1.0, WeatherScore(cozy, restaurant.WeatherRainy))
	assert.Equal(t, 0.7, WeatherScore(terrace, restaurant.WeatherRainy))
	assert.Equal(t, 0.8, WeatherScore(terrace, restaurant.WeatherCold))
	assert.Equal(t, 0.7, WeatherScore(terrace, restaurant.WeatherCloudy))
	assert.Equal(t, 0.7, WeatherScore(terrace, ""))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	w := DefaultWeights()
	w.Craving = 0.6
	assert.Error(t, w.Validate())

	w = DefaultWeights()
	w.Weather = -0.05
	w.Craving = 0.6
	assert.Error(t, w.Validate())

	_, err := NewScorer(Weights{Craving: 1}, nil)
	assert.NoError(t, err)
	_, err = NewScorer(Weights{}, nil)
	assert.Error(t, err)
}

func TestScorerCravingMonotonicity(t *testing.T) {
	scorer, err := NewScorer(DefaultWeights(), nil)
	require.NoError(t, err)

	prefs := restaurant.Preferences{
		Weather:  restaurant.WeatherSunny,
		Occasion: restaurant.OccasionFriends,
		Distance: restaurant.DistanceNear,
		Craving:  restaurant.CravingSavory,
		Budget:   restaurant.BudgetMedium,
	}
	match := newTestRestaurant(1, []string{"Tacos"}, []string{"Terraza"}, 200)
	miss := newTestRestaurant(2, []string{"Sin categoria"}, []string{"Terraza"}, 200)

	a := scorer.Score(match, prefs, cdmx)
	b := scorer.Score(miss, prefs, cdmx)

	assert.Equal(t, 1.0, a.Breakdown.Craving)
	assert.Equal(t, 0.0, b.Breakdown.Craving)
	assert.Equal(t, a.Breakdown.Occasion, b.Breakdown.Occasion)
	assert.InDelta(t, DefaultWeights().Craving, a.Score-b.Score, 1e-12)
	assert.Equal(t, 0.0, a.DistanceKm)
	assert.InDelta(t, 1.0, a.Score, 1e-12)
}

func TestScorerDoesNotMutateSource(t *testing.T) {
	scorer, err := NewScorer(DefaultWeights(), nil)
	require.NoError(t, err)

	r := newTestRestaurant(1, []string{"Tacos"}, nil, 200)
	before := r
	s := scorer.Score(r, restaurant.Preferences{Craving: restaurant.CravingSavory}, cdmx)

	assert.Equal(t, before, r)
	assert.Equal(t, r, s.Restaurant)
	assert.GreaterOrEqual(t, s.Score, 0.0)
	assert.LessOrEqual(t, s.Score, 1.0)
}

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	scorer, err := NewScorer(DefaultWeights(), nil)
	require.NoError(t, err)
	return NewRanker(scorer, nil)
}

func TestRankEmptyCatalog(t *testing.T) {
	got, err := newTestRanker(t).Rank(nil, restaurant.Preferences{}, cdmx, 10)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestRankCravingHardFilter(t *testing.T) {
	catalog := []restaurant.Restaurant{
		newTestRestaurant(1, []string{"Tacos"}, nil, 100),
		newTestRestaurant(2, []string{"Mariscos"}, nil, 300),
		newTestRestaurant(3, []string{"Pizza"}, nil, 200),
	}

	got, err := newTestRanker(t).Rank(catalog, restaurant.Preferences{Craving: "dulce"}, cdmx, 10)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNoMatches)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRankSortsAndLimits(t *testing.T) {
	far := newTestRestaurant(4, []string{"Tacos"}, nil, 200)
	far.Latitude += 0.2 // roughly 22 km north

	catalog := []restaurant.Restaurant{
		newTestRestaurant(1, []string{"Postres"}, nil, 200),
		newTestRestaurant(2, []string{"Tacos"}, nil, 200),
		newTestRestaurant(3, []string{"Tacos"}, nil, 200),
		far,
		newTestRestaurant(5, []string{"Hamburguesas"}, nil, 200),
	}
	prefs := restaurant.Preferences{
		Occasion: restaurant.OccasionFriends,
		Distance: restaurant.DistanceNear,
		Craving:  restaurant.CravingSavory,
		Budget:   restaurant.BudgetMedium,
	}

	ranker := newTestRanker(t)

	all, err := ranker.Rank(catalog, prefs, cdmx, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5, 4}, restaurant.IDs(all), "ties keep catalog order, sweet entry removed")
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}

	top, err := ranker.Rank(catalog, prefs, cdmx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, restaurant.IDs(top))
}

func TestRankBothCravingKeepsEverything(t *testing.T) {
	catalog := []restaurant.Restaurant{
		newTestRestaurant(1, []string{"Postres"}, nil, 200),
		newTestRestaurant(2, []string{"Tacos"}, nil, 200),
	}

	got, err := newTestRanker(t).Rank(catalog, restaurant.Preferences{Craving: "ambos"}, cdmx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
