// Package config defines service configuration and its layered loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

// Geocoder modes.
const (
	GeocoderStatic    = "static"
	GeocoderNominatim = "nominatim"
)

// Geocode fallback policies for unresolved countries.
const (
	FallbackDrop   = "drop"   // drop the row, count it
	FallbackOrigin = "origin" // keep the row pinned at (0,0)
)

// Config holds all service settings.
type Config struct {
	CSVPath         string   `koanf:"csv_path"`
	CSVDelimiter    string   `koanf:"csv_delimiter"` // "comma" or "semicolon"
	RequiredColumns []string `koanf:"required_columns"`

	HTTPAddr        string        `koanf:"http_addr"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	GeocoderMode       string        `koanf:"geocoder_mode"`
	GeocodeFallback    string        `koanf:"geocode_fallback"`
	NominatimBaseURL   string        `koanf:"nominatim_base_url"`
	GeocodeTimeout     time.Duration `koanf:"geocode_timeout"`
	GeocodeMinInterval time.Duration `koanf:"geocode_min_interval"`
	GeocodeCacheSize   int           `koanf:"geocode_cache_size"`

	KafkaEnabled   bool     `koanf:"kafka_enabled"`
	KafkaBrokers   []string `koanf:"kafka_brokers"`
	KafkaSinkTopic string   `koanf:"kafka_sink_topic"`

	PostgresDSN string `koanf:"postgres_dsn"`
}

// defaults returns a Config with every field at its default.
func defaults() *Config {
	return &Config{
		CSVPath:         "Global_Cybersecurity_Threats_2015-2024.csv",
		CSVDelimiter:    "comma",
		RequiredColumns: domain.RequiredColumns(),

		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		GeocoderMode:       GeocoderStatic,
		GeocodeFallback:    FallbackDrop,
		NominatimBaseURL:   "",
		GeocodeTimeout:     5 * time.Second,
		GeocodeMinInterval: time.Second,
		GeocodeCacheSize:   1000,

		KafkaEnabled:   false,
		KafkaBrokers:   []string{"localhost:9092"},
		KafkaSinkTopic: "prepared-incidents",

		PostgresDSN: "",
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables.
// Order of precedence (low -> high):
//  1. defaults
//  2. file (YAML) if THREATPREP_CONFIG is set
//  3. env (prefix THREATPREP_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("THREATPREP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// THREATPREP_CSV_PATH -> csv_path, THREATPREP_KAFKA_BROKERS -> kafka_brokers, ...
	envProvider := env.Provider("THREATPREP_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "THREATPREP_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// koanf's default decoder has no string-to-slice hook, so env values for
	// list settings (kafka_brokers, required_columns) would land as a single
	// element. Split them on commas.
	cfg := defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CSVPath == "" {
		return errors.New("csv_path is required")
	}
	if _, err := c.Delimiter(); err != nil {
		return err
	}
	switch c.GeocoderMode {
	case GeocoderStatic, GeocoderNominatim:
	default:
		return fmt.Errorf("geocoder_mode must be %q or %q, got %q", GeocoderStatic, GeocoderNominatim, c.GeocoderMode)
	}
	switch c.GeocodeFallback {
	case FallbackDrop, FallbackOrigin:
	default:
		return fmt.Errorf("geocode_fallback must be %q or %q, got %q", FallbackDrop, FallbackOrigin, c.GeocodeFallback)
	}
	if c.GeocoderMode == GeocoderNominatim {
		if c.GeocodeTimeout <= 0 {
			return errors.New("geocode_timeout must be positive")
		}
		if c.GeocodeMinInterval <= 0 {
			return errors.New("geocode_min_interval must be positive")
		}
		if c.GeocodeCacheSize <= 0 {
			return errors.New("geocode_cache_size must be positive")
		}
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if missing := domain.MissingColumns(c.RequiredColumns, domain.CoreColumns()); len(missing) > 0 {
		return fmt.Errorf("required_columns must include the core columns, missing: %s", strings.Join(missing, ", "))
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("kafka_brokers is required when kafka_enabled is true")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("kafka_sink_topic is required when kafka_enabled is true")
		}
	}
	return nil
}

// Delimiter maps the configured delimiter name to its rune.
func (c *Config) Delimiter() (rune, error) {
	switch c.CSVDelimiter {
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	default:
		return 0, fmt.Errorf("csv_delimiter must be \"comma\" or \"semicolon\", got %q", c.CSVDelimiter)
	}
}

// Fingerprint summarizes the settings that affect dataset content. It feeds
// the memoization key so a config change invalidates the held dataset.
func (c *Config) Fingerprint() string {
	return strings.Join([]string{
		c.CSVPath,
		c.CSVDelimiter,
		strings.Join(c.RequiredColumns, "|"),
		c.GeocoderMode,
		c.GeocodeFallback,
	}, "\x00")
}
