// Package googlemaps resolves addresses to coordinates with the Google
// Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
)

const (
	provider       = "google-geocoding"
	defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// Client implements domain.Geocoder. The credential check and HTTP client
// construction run once, on first use.
type Client struct {
	apiKey  string
	timeout time.Duration
	baseURL string
	metrics *observability.Metrics
	logger  *slog.Logger

	once       sync.Once
	httpClient *http.Client
	initErr    error
}

// NewClient creates a geocoding client. A missing key is reported by the
// first Geocode call.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		timeout: timeout,
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Ready performs the one-time initialization and returns its outcome.
func (c *Client) Ready() error {
	c.once.Do(func() {
		if c.apiKey == "" {
			c.initErr = fmt.Errorf("MAPS_API_KEY is required: %w", domain.ErrMissingCredential)
			return
		}
		c.httpClient = &http.Client{Timeout: c.timeout}
		c.logger.Debug("geocoding client initialized")
	})
	return c.initErr
}

// Geocode converts a free-text address to coordinates. ZERO_RESULTS yields an
// empty result and no error.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	if err := c.Ready(); err != nil {
		return domain.GeocodingResult{}, err
	}

	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, &domain.UpstreamError{Provider: provider, Err: fmt.Errorf("geocode request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, &domain.UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Message: string(body)}
	}

	var gr response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, &domain.UpstreamError{Provider: provider, Err: fmt.Errorf("decode response: %w", err)}
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodingResult{}, nil
	default:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		msg := gr.Status
		if gr.ErrorMessage != "" {
			msg += ": " + gr.ErrorMessage
		}
		return domain.GeocodingResult{}, &domain.UpstreamError{Provider: provider, Message: msg}
	}

	if len(gr.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodingResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	r := gr.Results[0]
	return domain.GeocodingResult{
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
	}, nil
}

// Geocoding API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
