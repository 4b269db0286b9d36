// Package weather reduces coordinates to one of the coarse weather labels used
// by the scorer.
package weather

import (
	"context"
	"math/rand/v2"

	"github.com/quovi/discover/internal/restaurant"
)

// ColdThresholdC is the temperature below which the weather is "cold"
// regardless of the sky.
const ColdThresholdC = 15.0

// Report is a classified weather observation.
type Report struct {
	Label        restaurant.WeatherLabel `json:"label"`
	TemperatureC float64                 `json:"temperature_c"`
	Description  string                  `json:"description"`
	Source       string                  `json:"source"`
}

// Classifier returns the weather at a location.
type Classifier interface {
	Classify(ctx context.Context, loc restaurant.Location) (Report, error)
}

// Classify maps an OpenWeather condition code and a temperature to a label.
// Cold wins over everything; codes 2xx-5xx (storm, drizzle, rain) are rainy,
// 800 is sunny and the rest cloudy.
func Classify(code int, tempC float64) restaurant.WeatherLabel {
	switch {
	case tempC < ColdThresholdC:
		return restaurant.WeatherCold
	case code >= 200 && code < 600:
		return restaurant.WeatherRainy
	case code == 800:
		return restaurant.WeatherSunny
	default:
		return restaurant.WeatherCloudy
	}
}

// SourceMock marks reports produced by MockClassifier.
const SourceMock = "mock"

var mockReports = []Report{
	{Label: restaurant.WeatherSunny, TemperatureC: 24.5, Description: "Cielo despejado", Source: SourceMock},
	{Label: restaurant.WeatherCloudy, TemperatureC: 18.0, Description: "Parcialmente nublado", Source: SourceMock},
	{Label: restaurant.WeatherRainy, TemperatureC: 16.5, Description: "Lluvia ligera", Source: SourceMock},
	{Label: restaurant.WeatherCold, TemperatureC: 12.0, Description: "Frío y nublado", Source: SourceMock},
}

// MockClassifier returns one of a few canned reports. It is used when no
// weather API key is configured or the API fails.
type MockClassifier struct {
	pick func(n int) int
}

// NewMockClassifier creates a mock picking reports with pick. A nil pick
// chooses uniformly at random.
func NewMockClassifier(pick func(n int) int) *MockClassifier {
	if pick == nil {
		pick = rand.IntN
	}
	return &MockClassifier{pick: pick}
}

// Classify returns a canned report.
func (m *MockClassifier) Classify(ctx context.Context, _ restaurant.Location) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return mockReports[m.pick(len(mockReports))], nil
}
