// Package rediscache shares geocoding results between service instances
// through Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tardus/office-planner/internal/adapter/googlemaps"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
)

const keyPrefix = "geocode:"

// NewClient creates a Redis client with the service's pool settings.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// CachedGeocoder wraps a Geocoder with a Redis-backed cache. Redis failures
// degrade to calling the inner geocoder.
type CachedGeocoder struct {
	rdb     redis.Cmdable
	inner   domain.Geocoder
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator storing entries for ttl.
func NewCachedGeocoder(rdb redis.Cmdable, inner domain.Geocoder, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		rdb:     rdb,
		inner:   inner,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

type cachedResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	key := keyPrefix + googlemaps.CacheKey(address)

	if res, ok := c.lookup(ctx, key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return res, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	res, err := c.inner.Geocode(ctx, address)
	if err != nil || !res.Found() {
		return res, err
	}

	payload, err := json.Marshal(cachedResult(res))
	if err != nil {
		return res, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
	return res, nil
}

func (c *CachedGeocoder) lookup(ctx context.Context, key string) (domain.GeocodingResult, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeocodingResult{}, false
	}
	if err != nil {
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
		return domain.GeocodingResult{}, false
	}

	var cr cachedResult
	if err := json.Unmarshal(raw, &cr); err != nil {
		c.logger.Warn("discarding corrupt geocode cache entry", "key", key, "error", err)
		return domain.GeocodingResult{}, false
	}
	return domain.GeocodingResult(cr), true
}

// CheckReadiness pings Redis.
func (c *CachedGeocoder) CheckReadiness(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
