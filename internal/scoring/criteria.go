package scoring

import (
	"strings"

	"github.com/quovi/discover/internal/restaurant"
)

// Keyword sets are matched as substrings of accent-folded, lowercased text.
var (
	sweetKeywords = []string{
		"postre", "dessert", "cafeteria", "cafe", "coffee", "panaderia", "bakery",
		"pasteleria", "pastel", "cake", "helado", "ice cream", "gelato", "crepa",
		"crepe", "churro", "dona", "donut", "chocolate", "waffle", "pan dulce",
		"dulceria", "sweet", "nieve",
	}
	savoryKeywords = []string{
		"taco", "pizza", "pizzeria", "hamburguesa", "burger", "marisco", "seafood", "carne",
		"steak", "sushi", "ramen", "pasta", "torta", "pollo", "chicken", "bbq",
		"asada", "barbacoa", "birria", "pozole", "tamal", "antojito", "mexicana",
		"italiana", "parrilla", "grill", "alitas", "wings", "sopa", "soup",
	}

	occasionKeywords = map[restaurant.Occasion][]string{
		restaurant.OccasionDate:    {"romantic", "romantico", "intimo", "intimate", "bar", "terrace", "terraza", "music", "musica"},
		restaurant.OccasionFriends: {"lively", "animado", "bar", "terrace", "terraza", "music", "musica", "para compartir", "sharing"},
		restaurant.OccasionAlone:   {"quiet", "tranquilo", "wifi", "cafe", "casual", "rapido"},
		restaurant.OccasionFamily:  {"spacious", "espacioso", "buffet", "family", "familiar", "infantil", "kids", "variado"},
	}
	noisyKeywords = []string{"noisy", "ruidoso"}

	outdoorKeywords = []string{"terrace", "terraza", "outdoor", "exterior", "aire libre", "patio", "jardin"}
	indoorKeywords  = []string{"indoor", "interior", "cozy", "acogedor"}
)

// Neutral scores returned for values the scorer does not recognise.
const (
	neutralCraving  = 0.5
	neutralCriteria = 0.7
)

// CravingScore classifies the combined categories, name and description of r
// against the sweet and savory keyword sets.
func CravingScore(r restaurant.Restaurant, craving restaurant.Craving) float64 {
	var keywords []string
	switch craving {
	case restaurant.CravingSweet:
		keywords = sweetKeywords
	case restaurant.CravingSavory:
		keywords = savoryKeywords
	case restaurant.CravingBoth:
		return neutralCriteria
	default:
		return neutralCraving
	}

	text := strings.Join([]string{foldLabels(r.CategoryNames()), foldText(r.Name), foldText(r.Description)}, " | ")
	if containsAny(text, keywords) {
		return 1.0
	}
	return 0.0
}

// OccasionScore inspects the feature labels of r for occasion keywords.
func OccasionScore(r restaurant.Restaurant, occasion restaurant.Occasion) float64 {
	keywords, ok := occasionKeywords[occasion]
	if !ok {
		return neutralCriteria
	}

	features := foldLabels(r.FeatureNames())
	if containsAny(features, keywords) {
		return 1.0
	}

	if occasion == restaurant.OccasionDate {
		if containsAny(features, noisyKeywords) {
			return 0.2
		}
		return 0.6
	}
	return 0.7
}

// DistanceScore maps a distance in kilometres to [0,1] for the given preference.
func DistanceScore(km float64, pref restaurant.DistancePreference) float64 {
	switch pref {
	case restaurant.DistanceNear:
		switch {
		case km <= 2:
			return 1.0
		case km <= 5:
			return 0.5
		default:
			return 0.1
		}
	case restaurant.DistanceExplore:
		switch {
		case km < 2:
			return 0.7
		case km <= 8:
			return 1.0
		default:
			return 0.3
		}
	case restaurant.DistanceFar:
		switch {
		case km > 8:
			return 1.0
		case km > 5:
			return 0.7
		default:
			return 0.3
		}
	default:
		return neutralCriteria
	}
}

// BudgetScore compares an average price against the band of the budget.
func BudgetScore(price float64, budget restaurant.Budget) float64 {
	switch budget {
	case restaurant.BudgetLow:
		switch {
		case price < 150:
			return 1.0
		case price <= 250:
			return 0.4
		default:
			return 0.0
		}
	case restaurant.BudgetMedium:
		switch {
		case price < 150:
			return 0.6
		case price <= 400:
			return 1.0
		default:
			return 0.3
		}
	case restaurant.BudgetHigh:
		switch {
		case price > 400:
			return 1.0
		case price >= 300:
			return 0.7
		default:
			return 0.3
		}
	default:
		return neutralCriteria
	}
}

// WeatherScore rewards outdoor seating when sunny and indoor comfort when rainy.
func WeatherScore(r restaurant.Restaurant, weather restaurant.WeatherLabel) float64 {
	switch weather {
	case restaurant.WeatherSunny:
		if containsAny(foldLabels(r.FeatureNames()), outdoorKeywords) {
			return 1.0
		}
		return 0.7
	case restaurant.WeatherRainy:
		if containsAny(foldLabels(r.FeatureNames()), indoorKeywords) {
			return 1.0
		}
		return 0.7
	case restaurant.WeatherCold:
		return 0.8
	default:
		return neutralCriteria
	}
}
