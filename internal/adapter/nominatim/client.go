// Package nominatim implements live country geocoding against the OSM
// Nominatim search API, with LRU caching and request throttling decorators
// layered on top of the raw client.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/couchcryptid/threat-data-etl/internal/observability"
)

// DefaultBaseURL is the public Nominatim instance. Production deployments
// should point at a self-hosted mirror; the public instance enforces a
// one-request-per-second usage policy, which the Throttled decorator honors.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// userAgent identifies this service per the Nominatim usage policy.
const userAgent = "threat-data-etl/1.0 (github.com/couchcryptid/threat-data-etl)"

// Client implements domain.Geocoder using the Nominatim search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve queries the search endpoint with the country display name as a
// free-form query. A response with no places means no match, not an error.
func (c *Client) Resolve(ctx context.Context, country string) (domain.Geo, bool, error) {
	params := url.Values{
		"q":      {country},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	start := time.Now()
	geo, ok, err := c.doRequest(ctx, fullURL)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocode lookup failed", "country", country, "error", err)
	case !ok:
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return geo, ok, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Geo, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Geo{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Geo{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return domain.Geo{}, false, nil
	}

	// Nominatim encodes coordinates as JSON strings.
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Geo{}, false, fmt.Errorf("malformed coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Geo{}, false, fmt.Errorf("coordinates out of range: %g,%g", lat, lon)
	}
	return domain.Geo{Lat: lat, Lon: lon}, true, nil
}

// Nominatim API response types.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
