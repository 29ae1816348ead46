package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/threat-data-etl/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/threat-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/threat-data-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/threat-data-etl/internal/adapter/postgres"
	"github.com/couchcryptid/threat-data-etl/internal/adapter/staticgeo"
	"github.com/couchcryptid/threat-data-etl/internal/config"
	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/couchcryptid/threat-data-etl/internal/observability"
	"github.com/couchcryptid/threat-data-etl/internal/preparer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	geocoder := buildGeocoder(cfg, metrics, logger)

	var sinks []preparer.Sink
	var closers []interface{ Close() error }

	if cfg.KafkaEnabled {
		kw := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, kw)
		closers = append(closers, kw)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.PostgresDSN != "" {
		pw, err := postgres.NewWriter(cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pw)
		closers = append(closers, pw)
		logger.Info("postgres sink enabled")
	}

	prep := preparer.New(cfg, geocoder, sinks, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the dataset once at startup. A failed build is logged but not
	// fatal: the server still comes up and reports the failure status, and
	// a refresh can retry once the source is fixed.
	if _, err := prep.Prepare(ctx); err != nil {
		logger.Error("initial dataset build failed", "error", err)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, prep, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("serving dataset", "addr", cfg.HTTPAddr, "csv_path", cfg.CSVPath)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildGeocoder assembles the resolver chain for the configured mode. The
// nominatim client is throttled first and cached on top, so cache hits skip
// the inter-request delay entirely.
func buildGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	switch cfg.GeocoderMode {
	case config.GeocoderNominatim:
		client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeocodeTimeout, metrics, logger)
		throttled := nominatim.NewThrottled(client, cfg.GeocodeMinInterval, nil)
		logger.Info("nominatim geocoding enabled",
			"base_url", cfg.NominatimBaseURL,
			"min_interval", cfg.GeocodeMinInterval,
			"cache_size", cfg.GeocodeCacheSize)
		return nominatim.NewCachedGeocoder(throttled, cfg.GeocodeCacheSize, metrics)
	default:
		logger.Info("static geocoding enabled", "countries", len(staticgeo.Countries()))
		return staticgeo.New()
	}
}
