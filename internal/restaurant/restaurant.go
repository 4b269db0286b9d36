// Package restaurant holds the records exchanged between the catalog, the
// scoring layer and the optimizer.
package restaurant

import (
	"math"
	"strings"
)

// Category is a cuisine label attached to a restaurant.
type Category struct {
	Name string `json:"category_name" yaml:"category_name"`
}

// Feature is a characteristic label attached to a restaurant (terrace, wifi, ...).
type Feature struct {
	Name string `json:"feature_name" yaml:"feature_name"`
}

// Restaurant is a catalog entry. It is owned by the catalog source and is
// only read by the scoring and optimization layers.
type Restaurant struct {
	ID          int        `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	AvgPrice    float64    `json:"avg_price" yaml:"avg_price"`
	Latitude    float64    `json:"latitude" yaml:"latitude"`
	Longitude   float64    `json:"longitude" yaml:"longitude"`
	Categories  []Category `json:"categories" yaml:"categories"`
	Features    []Feature  `json:"features" yaml:"features"`
}

// Location returns the restaurant coordinates.
func (r Restaurant) Location() Location {
	return Location{Latitude: r.Latitude, Longitude: r.Longitude}
}

// CategoryNames returns the category labels in catalog order.
func (r Restaurant) CategoryNames() []string {
	names := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		names = append(names, c.Name)
	}
	return names
}

// FeatureNames returns the feature labels in catalog order.
func (r Restaurant) FeatureNames() []string {
	names := make([]string, 0, len(r.Features))
	for _, f := range r.Features {
		names = append(names, f.Name)
	}
	return names
}

// Location is a point on the globe in degrees.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Valid reports whether both coordinates are finite and inside their ranges.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) ||
		math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Breakdown holds the five unweighted criterion sub-scores.
type Breakdown struct {
	Craving  float64 `json:"craving"`
	Occasion float64 `json:"occasion"`
	Distance float64 `json:"distance"`
	Budget   float64 `json:"budget"`
	Weather  float64 `json:"weather"`
}

// Scored is a restaurant copy annotated with its weighted relevance score.
// Its lifetime is a single request.
type Scored struct {
	Restaurant
	Score      float64   `json:"score"`
	DistanceKm float64   `json:"distance_km"`
	Breakdown  Breakdown `json:"breakdown"`
}

// IDs returns the restaurant ids of items in order.
func IDs(items []Scored) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
