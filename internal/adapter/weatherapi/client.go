// Package weatherapi fetches current and forecast conditions from WeatherAPI.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
)

const (
	provider       = "weatherapi"
	defaultBaseURL = "https://api.weatherapi.com/v1"
	maxBodyBytes   = 1 << 20

	// The provider returns `days` entries starting today, so covering
	// today+ForecastRangeDays takes one more.
	forecastDays = domain.ForecastRangeDays + 1
)

// Client implements domain.WeatherSource against WeatherAPI.com.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a WeatherAPI.com client. An empty key is rejected before
// any request is made.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY is required: %w", domain.ErrMissingCredential)
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Current returns the present conditions at the office.
func (c *Client) Current(ctx context.Context, office domain.Office) (domain.WeatherObservation, error) {
	city := office.City
	params := url.Values{
		"key": {c.apiKey},
		"q":   {query(office)},
		"aqi": {"no"},
	}

	body, err := c.get(ctx, "current", city, "/current.json?"+params.Encode())
	if err != nil {
		return domain.WeatherObservation{}, err
	}
	if err := checkShape(currentSchema, body); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("current", "error").Inc()
		return domain.WeatherObservation{}, &domain.UpstreamError{Provider: provider, City: city, Err: err}
	}

	var resp currentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("current", "error").Inc()
		return domain.WeatherObservation{}, &domain.UpstreamError{Provider: provider, City: city, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.metrics.WeatherRequests.WithLabelValues("current", "success").Inc()
	cur := resp.Current
	return domain.WeatherObservation{
		City:         city,
		TemperatureF: roundHalfUp(cur.TempF),
		TemperatureC: roundHalfUp(cur.TempC),
		Condition:    cur.Condition.Text,
		Humidity:     cur.Humidity,
		WindSpeedMph: cur.WindMph,
		WeatherCode:  cur.Condition.Code,
	}, nil
}

// Forecast returns the daily averages for date from the daily forecast. A
// date the provider does not cover is reported with ok=false and no error.
func (c *Client) Forecast(ctx context.Context, office domain.Office, date domain.Date) (domain.WeatherObservation, bool, error) {
	city := office.City
	params := url.Values{
		"key":  {c.apiKey},
		"q":    {query(office)},
		"days": {strconv.Itoa(forecastDays)},
		"aqi":  {"no"},
	}

	body, err := c.get(ctx, "forecast", city, "/forecast.json?"+params.Encode())
	if err != nil {
		return domain.WeatherObservation{}, false, err
	}
	if err := checkShape(forecastSchema, body); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("forecast", "error").Inc()
		return domain.WeatherObservation{}, false, &domain.UpstreamError{Provider: provider, City: city, Err: err}
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("forecast", "error").Inc()
		return domain.WeatherObservation{}, false, &domain.UpstreamError{Provider: provider, City: city, Err: fmt.Errorf("decode response: %w", err)}
	}

	want := date.String()
	for _, fd := range resp.Forecast.ForecastDay {
		if fd.Date != want {
			continue
		}
		c.metrics.WeatherRequests.WithLabelValues("forecast", "success").Inc()
		d := date
		return domain.WeatherObservation{
			City:         city,
			TemperatureF: roundHalfUp(fd.Day.AvgTempF),
			TemperatureC: roundHalfUp(fd.Day.AvgTempC),
			Condition:    fd.Day.Condition.Text,
			Humidity:     fd.Day.AvgHumidity,
			WindSpeedMph: fd.Day.MaxWindMph,
			WeatherCode:  fd.Day.Condition.Code,
			Date:         &d,
			IsForecast:   true,
		}, true, nil
	}

	c.metrics.WeatherRequests.WithLabelValues("forecast", "missing").Inc()
	c.logger.Debug("forecast has no entry for date", "city", city, "date", want)
	return domain.WeatherObservation{}, false, nil
}

func (c *Client) get(ctx context.Context, kind, city, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WeatherAPIDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(kind, "error").Inc()
		return nil, &domain.UpstreamError{Provider: provider, City: city, Err: fmt.Errorf("%s request: %w", kind, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(kind, "error").Inc()
		return nil, &domain.UpstreamError{Provider: provider, City: city, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues(kind, "error").Inc()
		return nil, &domain.UpstreamError{
			Provider:   provider,
			City:       city,
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(body),
		}
	}
	return body, nil
}

// query locates the office by "lat,lng".
// roundHalfUp rounds halves toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func query(o domain.Office) string {
	return fmt.Sprintf("%.4f,%.4f", o.Lat, o.Lng)
}

// apiErrorMessage extracts {"error":{"message":...}} when present and falls
// back to the raw body.
func apiErrorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}

// WeatherAPI.com response types.

type condition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

type currentResponse struct {
	Current struct {
		TempF     float64   `json:"temp_f"`
		TempC     float64   `json:"temp_c"`
		Condition condition `json:"condition"`
		Humidity  float64   `json:"humidity"`
		WindMph   float64   `json:"wind_mph"`
	} `json:"current"`
}

type forecastResponse struct {
	Forecast struct {
		ForecastDay []forecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type forecastDay struct {
	Date string `json:"date"`
	Day  struct {
		AvgTempF    float64   `json:"avgtemp_f"`
		AvgTempC    float64   `json:"avgtemp_c"`
		Condition   condition `json:"condition"`
		AvgHumidity float64   `json:"avghumidity"`
		MaxWindMph  float64   `json:"maxwind_mph"`
	} `json:"day"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
