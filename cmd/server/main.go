package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/tardus/office-planner/internal/adapter/googlemaps"
	"github.com/tardus/office-planner/internal/adapter/httpadapter"
	kafkaadapter "github.com/tardus/office-planner/internal/adapter/kafka"
	"github.com/tardus/office-planner/internal/adapter/rediscache"
	"github.com/tardus/office-planner/internal/adapter/weatherapi"
	"github.com/tardus/office-planner/internal/config"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
	"github.com/tardus/office-planner/internal/planner"
	"github.com/tardus/office-planner/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weather, err := weatherapi.NewClient(cfg.WeatherAPIKey, cfg.WeatherTimeout, metrics, logger)
	if err != nil {
		return err
	}

	maps := googlemaps.NewClient(cfg.MapsAPIKey, cfg.MapsTimeout, metrics, logger)
	if err := maps.Ready(); err != nil {
		return err
	}

	// Geocode cache: Redis when configured, otherwise in-process LRU.
	var geocoder domain.Geocoder
	var cacheReady sharedobs.ReadinessChecker
	if cfg.RedisAddr != "" {
		rdb := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		defer rdb.Close()
		cached := rediscache.NewCachedGeocoder(rdb, maps, cfg.GeocodeCacheTTL, metrics, logger)
		geocoder, cacheReady = cached, cached
		logger.Info("redis geocode cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.GeocodeCacheTTL)
	} else {
		geocoder = googlemaps.NewCachedGeocoder(maps, cfg.GeocodeCacheSize, metrics)
		logger.Info("in-memory geocode cache enabled", "cache_size", cfg.GeocodeCacheSize)
	}

	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	resumes, err := storage.NewResumeStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var publisher domain.ApplicationPublisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("application events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaApplicationsTopic)
	} else {
		logger.Info("application events disabled")
	}

	api := &httpadapter.API{
		Planner:    planner.New(weather, logger, metrics),
		Geocoder:   geocoder,
		Applicants: store,
		Resumes:    resumes,
		Publisher:  publisher,
		Metrics:    metrics,
		Logger:     logger,
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, httpadapter.Readiness(store, cacheReady), logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
