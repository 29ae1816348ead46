package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Global_Cybersecurity_Threats_2015-2024.csv", cfg.CSVPath)
	assert.Equal(t, "comma", cfg.CSVDelimiter)
	assert.Equal(t, domain.RequiredColumns(), cfg.RequiredColumns)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, GeocoderStatic, cfg.GeocoderMode)
	assert.Equal(t, FallbackDrop, cfg.GeocodeFallback)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, time.Second, cfg.GeocodeMinInterval)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("THREATPREP_CSV_PATH", "/data/incidents.csv")
	t.Setenv("THREATPREP_CSV_DELIMITER", "semicolon")
	t.Setenv("THREATPREP_HTTP_ADDR", ":9090")
	t.Setenv("THREATPREP_LOG_LEVEL", "debug")
	t.Setenv("THREATPREP_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("THREATPREP_GEOCODER_MODE", "nominatim")
	t.Setenv("THREATPREP_GEOCODE_FALLBACK", "origin")
	t.Setenv("THREATPREP_GEOCODE_MIN_INTERVAL", "2s")
	t.Setenv("THREATPREP_KAFKA_ENABLED", "true")
	t.Setenv("THREATPREP_KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("THREATPREP_KAFKA_SINK_TOPIC", "incidents")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/incidents.csv", cfg.CSVPath)
	assert.Equal(t, "semicolon", cfg.CSVDelimiter)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, GeocoderNominatim, cfg.GeocoderMode)
	assert.Equal(t, FallbackOrigin, cfg.GeocodeFallback)
	assert.Equal(t, 2*time.Second, cfg.GeocodeMinInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "incidents", cfg.KafkaSinkTopic)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("csv_path: /srv/threats.csv\ncsv_delimiter: semicolon\n"), 0o644))
	t.Setenv("THREATPREP_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/threats.csv", cfg.CSVPath)
	assert.Equal(t, "semicolon", cfg.CSVDelimiter)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("csv_path: /srv/file-wins.csv\n"), 0o644))
	t.Setenv("THREATPREP_CONFIG", path)
	t.Setenv("THREATPREP_CSV_PATH", "/srv/env-wins.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/env-wins.csv", cfg.CSVPath)
}

func TestLoad_InvalidDelimiter(t *testing.T) {
	t.Setenv("THREATPREP_CSV_DELIMITER", "tab")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv_delimiter")
}

func TestLoad_InvalidGeocoderMode(t *testing.T) {
	t.Setenv("THREATPREP_GEOCODER_MODE", "carrier-pigeon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocoder_mode")
}

func TestLoad_InvalidFallback(t *testing.T) {
	t.Setenv("THREATPREP_GEOCODE_FALLBACK", "teleport")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode_fallback")
}

func TestLoad_KafkaEnabledRequiresTopic(t *testing.T) {
	t.Setenv("THREATPREP_KAFKA_ENABLED", "true")
	t.Setenv("THREATPREP_KAFKA_SINK_TOPIC", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka_sink_topic")
}

func TestLoad_EnvListValuesSplitOnCommas(t *testing.T) {
	t.Setenv("THREATPREP_KAFKA_BROKERS", "a:9092,b:9092,c:9092")
	t.Setenv("THREATPREP_REQUIRED_COLUMNS",
		"Country,Year,Financial Loss (in Million $),Number of Affected Users,Incident Resolution Time (in Hours)")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, domain.CoreColumns(), cfg.RequiredColumns,
		"env value should decode as a five-column subset, not one element")
}

func TestLoad_RequiredColumnsMustIncludeCore(t *testing.T) {
	t.Setenv("THREATPREP_REQUIRED_COLUMNS", "Country,Attack Type")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core columns")
}

func TestDelimiter(t *testing.T) {
	c := defaults()
	d, err := c.Delimiter()
	require.NoError(t, err)
	assert.Equal(t, ',', d)

	c.CSVDelimiter = "semicolon"
	d, err = c.Delimiter()
	require.NoError(t, err)
	assert.Equal(t, ';', d)
}

func TestFingerprint_ChangesWithContentSettings(t *testing.T) {
	a := defaults()
	b := defaults()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.GeocodeFallback = FallbackOrigin
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	// Serving settings do not affect dataset content.
	c := defaults()
	c.HTTPAddr = ":9999"
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}
