// Package planner recommends an office for an event by fetching weather for
// every office in parallel and scoring each one.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
)

// Suggestion outcomes.
const (
	StatusBest = "best"
	StatusNone = "none"
)

// ErrNoWeather is returned when no office produced an observation because
// upstream calls failed.
var ErrNoWeather = errors.New("weather unavailable for every office")

// Option is one office's weather and derived suitability.
type Option struct {
	Office      domain.Office             `json:"office"`
	Weather     domain.WeatherObservation `json:"weather"`
	Suitability domain.SuitabilityResult  `json:"suitability"`
	Reason      string                    `json:"reason"`
}

// Failure records an office whose weather could not be fetched.
type Failure struct {
	OfficeID string `json:"officeId"`
	City     string `json:"city"`
	Error    string `json:"error"`
}

// Report is the weather for every office on one date.
type Report struct {
	Date       *domain.Date `json:"date,omitempty"`
	IsForecast bool         `json:"isForecast"`
	Options    []Option     `json:"options"`
	Failed     []Failure    `json:"failed"`
}

// Suggestion is the planner's decision for an event date.
type Suggestion struct {
	Status          string         `json:"status"`
	Date            domain.Date    `json:"date"`
	Best            *Option        `json:"best,omitempty"`
	Options         []Option       `json:"options"`
	SuggestedDate   *domain.Date   `json:"suggestedDate,omitempty"`
	SuggestedOffice *domain.Office `json:"suggestedOffice,omitempty"`
	Failed          []Failure      `json:"failed"`
}

// Err returns domain.ErrNoSuitableLocation when no office qualified.
func (s Suggestion) Err() error {
	if s.Status == StatusNone {
		return domain.ErrNoSuitableLocation
	}
	return nil
}

// Planner fans weather requests out over the fixed office list.
type Planner struct {
	weather domain.WeatherSource
	offices []domain.Office
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Planner over all offices.
func New(weather domain.WeatherSource, logger *slog.Logger, metrics *observability.Metrics) *Planner {
	return &Planner{
		weather: weather,
		offices: domain.Offices(),
		logger:  logger,
		metrics: metrics,
	}
}

type slot struct {
	obs   domain.WeatherObservation
	found bool
	err   error
}

// Weather fetches observations for every office. A zero date, or a date
// outside the forecast range, uses current conditions; otherwise the daily
// forecast for date. One office failing never affects the others.
func (p *Planner) Weather(ctx context.Context, date domain.Date) Report {
	forecast := !date.IsZero() && domain.IsWithinForecastRange(date)
	start := time.Now()

	slots := make([]slot, len(p.offices))
	var g errgroup.Group
	for i, office := range p.offices {
		g.Go(func() error {
			if forecast {
				obs, ok, err := p.weather.Forecast(ctx, office, date)
				slots[i] = slot{obs: obs, found: ok, err: err}
			} else {
				obs, err := p.weather.Current(ctx, office)
				slots[i] = slot{obs: obs, found: err == nil, err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		IsForecast: forecast,
		Options:    make([]Option, 0, len(p.offices)),
		Failed:     []Failure{},
	}
	if !date.IsZero() {
		d := date
		report.Date = &d
	}

	for i, s := range slots {
		office := p.offices[i]
		switch {
		case s.err != nil:
			p.logger.Warn("weather fetch failed", "office", office.ID, "error", s.err)
			report.Failed = append(report.Failed, Failure{OfficeID: office.ID, City: office.City, Error: s.err.Error()})
		case !s.found:
			p.logger.Debug("no forecast for date", "office", office.ID, "date", date.String())
		default:
			report.Options = append(report.Options, newOption(office, s.obs))
		}
	}

	p.logger.Info("weather fetched",
		"date", date.String(),
		"forecast", forecast,
		"succeeded", len(report.Options),
		"failed", len(report.Failed),
		"duration", time.Since(start),
	)
	return report
}

// Suggest picks the best office for date. When nothing reaches the
// suitability threshold it proposes the next day at the highest-scoring
// office instead.
func (p *Planner) Suggest(ctx context.Context, date domain.Date) (Suggestion, error) {
	report := p.Weather(ctx, date)
	if len(report.Options) == 0 {
		s := Suggestion{Status: StatusNone, Date: date, Options: report.Options, Failed: report.Failed}
		if len(report.Failed) > 0 {
			return s, ErrNoWeather
		}
		// Every office answered but none covers the date.
		alt := domain.SuggestedAlternativeDate(date)
		s.SuggestedDate = &alt
		p.logger.Info("no office has weather for date", "date", date.String(), "suggested_date", alt.String())
		p.metrics.Suggestions.WithLabelValues(s.Status).Inc()
		return s, nil
	}

	observations := make([]domain.WeatherObservation, len(report.Options))
	for i, o := range report.Options {
		observations[i] = o.Weather
	}
	best, _ := domain.PickBest(observations)
	top := report.Options[0]
	for _, o := range report.Options {
		if o.Weather.City == best.City {
			top = o
			break
		}
	}

	s := Suggestion{
		Date:    date,
		Options: report.Options,
		Failed:  report.Failed,
	}
	if top.Suitability.IsSuitable {
		s.Status = StatusBest
		s.Best = &top
	} else {
		alt := domain.SuggestedAlternativeDate(date)
		office := top.Office
		s.Status = StatusNone
		s.SuggestedDate = &alt
		s.SuggestedOffice = &office
		p.logger.Info("no suitable office", "date", date.String(), "suggested_date", alt.String(),
			"top_office", office.ID, "top_score", top.Suitability.Score)
	}

	p.metrics.Suggestions.WithLabelValues(s.Status).Inc()
	return s, nil
}

func newOption(office domain.Office, obs domain.WeatherObservation) Option {
	res := domain.Score(obs)
	return Option{
		Office:      office,
		Weather:     obs,
		Suitability: res,
		Reason:      res.Reason(),
	}
}
