// Package catalog loads the restaurant catalog from the upstream backend, a
// local file or memory.
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quovi/discover/internal/restaurant"
)

// ErrUnavailable is matched by errors caused by an unreachable or broken upstream.
var ErrUnavailable = errors.New("catalog unavailable")

// Source returns the current restaurant catalog.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Restaurants returns every restaurant. The result must not be modified.
	Restaurants(ctx context.Context) ([]restaurant.Restaurant, error)
}

// envelope is the payload shape shared by the backend API and catalog files.
type envelope struct {
	Data []restaurant.Restaurant `json:"data" yaml:"data"`
}

// StaticSource serves a fixed catalog.
type StaticSource struct {
	restaurants []restaurant.Restaurant
}

// NewStaticSource creates a source serving restaurants.
func NewStaticSource(restaurants []restaurant.Restaurant) *StaticSource {
	return &StaticSource{restaurants: restaurants}
}

// Name returns "static".
func (s *StaticSource) Name() string { return "static" }

// Restaurants returns the fixed catalog.
func (s *StaticSource) Restaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.restaurants, nil
}

// sanitize drops entries with invalid coordinates and repeated ids.
func sanitize(in []restaurant.Restaurant, logger *zap.Logger) []restaurant.Restaurant {
	out := make([]restaurant.Restaurant, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, r := range in {
		if !r.Location().Valid() {
			logger.Warn("skipping restaurant with invalid coordinates",
				zap.Int("restaurant_id", r.ID),
				zap.Float64("latitude", r.Latitude),
				zap.Float64("longitude", r.Longitude),
			)
			continue
		}
		if _, dup := seen[r.ID]; dup {
			logger.Warn("skipping duplicate restaurant id", zap.Int("restaurant_id", r.ID))
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
