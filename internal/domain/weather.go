package domain

import "context"

// WeatherSource provides current and forecast observations for an office.
type WeatherSource interface {
	Current(ctx context.Context, office Office) (WeatherObservation, error)
	// Forecast returns the daily forecast for date. ok is false when the
	// provider returned no entry for that date.
	Forecast(ctx context.Context, office Office, date Date) (obs WeatherObservation, ok bool, err error)
}
