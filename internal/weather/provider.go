package weather

import (
	"context"
	"time"
)

// Reading is a single provider's normalized view of current conditions.
type Reading struct {
	ProviderName string
	Timestamp    time.Time

	// PlaceName is empty when the provider does not resolve names.
	PlaceName    string
	Description  string
	TemperatureC float64
	FeelsLikeC   float64
	HumidityPct  float64
	WindSpeedMS  float64
}

// Provider abstracts a current-conditions source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}
