package domain

import "strings"

// SuitabilityThreshold is the minimum score for an office to be recommended.
const SuitabilityThreshold = 75

// WeatherObservation is a single weather reading for an office, either the
// current conditions or a daily forecast average.
type WeatherObservation struct {
	City         string  `json:"city"`
	TemperatureF float64 `json:"temperatureF"`
	TemperatureC float64 `json:"temperatureC"`
	Condition    string  `json:"condition"`
	Humidity     float64 `json:"humidity"`
	WindSpeedMph float64 `json:"windSpeed"`
	WeatherCode  int     `json:"weatherCode"`
	Date         *Date   `json:"date,omitempty"`
	IsForecast   bool    `json:"isForecast"`
}

// SuitabilityResult is the derived rating of an observation. It is always
// recomputed from the observation and never stored.
type SuitabilityResult struct {
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons"`
	IsSuitable bool     `json:"isSuitable"`
}

// Reason joins the reasons in application order, or returns
// "Excellent conditions" when no rule fired.
func (r SuitabilityResult) Reason() string {
	if len(r.Reasons) == 0 {
		return "Excellent conditions"
	}
	return strings.Join(r.Reasons, ", ")
}
