package scoring

import (
	"sort"

	"go.uber.org/zap"

	"github.com/quovi/discover/internal/restaurant"
)

// cravingFilterThreshold is the craving sub-score below which a restaurant is
// dropped when the craving is specific.
const cravingFilterThreshold = 0.5

// Ranker applies a Scorer to a whole catalog.
type Ranker struct {
	scorer *Scorer
	logger *zap.Logger
}

// NewRanker creates a ranker backed by scorer.
func NewRanker(scorer *Scorer, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{scorer: scorer, logger: logger.Named("ranker")}
}

// Rank scores every restaurant of catalog, removes craving mismatches,
// sorts by score descending keeping catalog order for ties and returns at
// most limit entries. A limit <= 0 returns every survivor.
//
// Rank returns ErrEmptyCatalog or ErrNoMatches, both matching ErrNoResults,
// instead of an empty slice.
func (r *Ranker) Rank(catalog []restaurant.Restaurant, prefs restaurant.Preferences, loc restaurant.Location, limit int) ([]restaurant.Scored, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	prefs = prefs.Normalize()
	filter := prefs.Craving.Specific()

	scored := make([]restaurant.Scored, 0, len(catalog))
	filtered := 0
	for _, item := range catalog {
		s := r.scorer.Score(item, prefs, loc)
		if filter && s.Breakdown.Craving < cravingFilterThreshold {
			filtered++
			continue
		}
		scored = append(scored, s)
	}

	if len(scored) == 0 {
		r.logger.Info("every restaurant removed by craving filter",
			zap.String("craving", string(prefs.Craving)),
			zap.Int("catalog_size", len(catalog)),
		)
		return nil, ErrNoMatches
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	r.logger.Debug("ranked catalog",
		zap.Int("catalog_size", len(catalog)),
		zap.Int("filtered", filtered),
		zap.Int("returned", len(scored)),
	)
	return scored, nil
}
