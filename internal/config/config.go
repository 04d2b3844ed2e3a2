package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/tardus/office-planner/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream credentials. Both are required.
	WeatherAPIKey  string
	WeatherTimeout time.Duration
	MapsAPIKey     string
	MapsTimeout    time.Duration

	// Applicant persistence.
	DatabaseDriver string
	DatabaseURL    string
	UploadDir      string

	// Geocode caching. Redis is used when RedisAddr is set, otherwise an
	// in-process LRU of GeocodeCacheSize entries.
	GeocodeCacheSize int
	GeocodeCacheTTL  time.Duration
	RedisAddr        string
	RedisPassword    string

	// Application events are only published when KafkaBrokers is non-empty.
	KafkaBrokers           []string
	KafkaApplicationsTopic string

	LookupDebounce time.Duration
}

// KafkaEnabled reports whether application events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherKey, err := requireCredential("WEATHER_API_KEY")
	if err != nil {
		return nil, err
	}
	mapsKey, err := requireCredential("MAPS_API_KEY")
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapsTimeout, err := parsePositiveDuration("MAPS_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("GEOCODE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	debounce, err := parsePositiveDuration("LOOKUP_DEBOUNCE", "500ms")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":3001"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIKey:  weatherKey,
		WeatherTimeout: weatherTimeout,
		MapsAPIKey:     mapsKey,
		MapsTimeout:    mapsTimeout,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		UploadDir:      sharedcfg.EnvOrDefault("UPLOAD_DIR", "uploads"),

		GeocodeCacheSize: parseGeocodeCacheSize(),
		GeocodeCacheTTL:  cacheTTL,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),

		KafkaApplicationsTopic: sharedcfg.EnvOrDefault("KAFKA_APPLICATIONS_TOPIC", "employee-applications"),

		LookupDebounce: debounce,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite3" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite3", cfg.DatabaseDriver)
	}
	if cfg.KafkaEnabled() && cfg.KafkaApplicationsTopic == "" {
		return nil, errors.New("KAFKA_APPLICATIONS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func requireCredential(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", key, domain.ErrMissingCredential)
	}
	return v, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
