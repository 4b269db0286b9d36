package restaurant

// Occasion describes who the user is going out with.
type Occasion string

const (
	OccasionDate    Occasion = "date"
	OccasionFriends Occasion = "friends"
	OccasionAlone   Occasion = "alone"
	OccasionFamily  Occasion = "family"
)

// DistancePreference describes how far the user is willing to travel.
type DistancePreference string

const (
	DistanceNear    DistancePreference = "near"
	DistanceExplore DistancePreference = "explore"
	DistanceFar     DistancePreference = "far"
)

// Craving is the kind of food the user wants.
type Craving string

const (
	CravingSweet  Craving = "sweet"
	CravingSavory Craving = "savory"
	CravingBoth   Craving = "both"
)

// Specific reports whether the craving excludes non-matching restaurants.
func (c Craving) Specific() bool {
	return c == CravingSweet || c == CravingSavory
}

// Budget is the spending band of the user.
type Budget string

const (
	BudgetLow    Budget = "low"
	BudgetMedium Budget = "medium"
	BudgetHigh   Budget = "high"
)

// WeatherLabel is the coarse weather classification at the user location.
type WeatherLabel string

const (
	WeatherSunny  WeatherLabel = "sunny"
	WeatherRainy  WeatherLabel = "rainy"
	WeatherCloudy WeatherLabel = "cloudy"
	WeatherCold   WeatherLabel = "cold"
)

// Preferences are the answers of the discovery questionnaire. Values outside
// the known sets are kept as given; the scorer treats them as unrecognized.
type Preferences struct {
	Weather  WeatherLabel       `json:"weather_label,omitempty"`
	Occasion Occasion           `json:"occasion" validate:"required"`
	Distance DistancePreference `json:"distance_pref" validate:"required"`
	Craving  Craving            `json:"craving" validate:"required"`
	Budget   Budget             `json:"budget" validate:"required"`
}

// Normalize maps every field through its Parse function.
func (p Preferences) Normalize() Preferences {
	p.Weather = ParseWeatherLabel(string(p.Weather))
	p.Occasion = ParseOccasion(string(p.Occasion))
	p.Distance = ParseDistancePreference(string(p.Distance))
	p.Craving = ParseCraving(string(p.Craving))
	p.Budget = ParseBudget(string(p.Budget))
	return p
}

// Spanish aliases accepted from the questionnaire client.
var (
	occasionAliases = map[string]Occasion{
		"date": OccasionDate, "cita": OccasionDate,
		"friends": OccasionFriends, "amigos": OccasionFriends,
		"alone": OccasionAlone, "solo": OccasionAlone,
		"family": OccasionFamily, "familia": OccasionFamily,
	}
	distanceAliases = map[string]DistancePreference{
		"near": DistanceNear, "cerca": DistanceNear,
		"explore": DistanceExplore, "explorar": DistanceExplore,
		"far": DistanceFar, "lejos": DistanceFar,
	}
	cravingAliases = map[string]Craving{
		"sweet": CravingSweet, "dulce": CravingSweet,
		"savory": CravingSavory, "savoury": CravingSavory, "salado": CravingSavory,
		"both": CravingBoth, "ambos": CravingBoth,
	}
	budgetAliases = map[string]Budget{
		"low": BudgetLow, "bajo": BudgetLow,
		"medium": BudgetMedium, "medio": BudgetMedium,
		"high": BudgetHigh, "alto": BudgetHigh,
	}
	weatherAliases = map[string]WeatherLabel{
		"sunny": WeatherSunny, "soleado": WeatherSunny,
		"rainy": WeatherRainy, "lluvioso": WeatherRainy,
		"cloudy": WeatherCloudy, "nublado": WeatherCloudy,
		"cold": WeatherCold, "frio": WeatherCold, "frío": WeatherCold,
	}
)

// ParseOccasion returns the canonical occasion for s, or s unchanged.
func ParseOccasion(s string) Occasion {
	if v, ok := occasionAliases[normalize(s)]; ok {
		return v
	}
	return Occasion(s)
}

// ParseDistancePreference returns the canonical distance preference for s, or s unchanged.
func ParseDistancePreference(s string) DistancePreference {
	if v, ok := distanceAliases[normalize(s)]; ok {
		return v
	}
	return DistancePreference(s)
}

// ParseCraving returns the canonical craving for s, or s unchanged.
func ParseCraving(s string) Craving {
	if v, ok := cravingAliases[normalize(s)]; ok {
		return v
	}
	return Craving(s)
}

// ParseBudget returns the canonical budget for s, or s unchanged.
func ParseBudget(s string) Budget {
	if v, ok := budgetAliases[normalize(s)]; ok {
		return v
	}
	return Budget(s)
}

// ParseWeatherLabel returns the canonical weather label for s, or s unchanged.
// The empty string stays empty so callers can tell "not supplied" apart.
func ParseWeatherLabel(s string) WeatherLabel {
	if v, ok := weatherAliases[normalize(s)]; ok {
		return v
	}
	return WeatherLabel(s)
}
