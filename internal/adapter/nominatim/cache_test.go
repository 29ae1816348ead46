package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls int
	geo   domain.Geo
	ok    bool
	err   error
}

func (m *countingGeocoder) Resolve(_ context.Context, _ string) (domain.Geo, bool, error) {
	m.calls++
	return m.geo, m.ok, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_Hit(t *testing.T) {
	inner := &countingGeocoder{geo: domain.Geo{Lat: 36.2048, Lon: 138.2529}, ok: true}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	g1, ok, err := cached.Resolve(context.Background(), "Japan")
	require.NoError(t, err)
	require.True(t, ok)

	g2, ok, err := cached.Resolve(context.Background(), "Japan")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, g1, g2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_DifferentCountriesMiss(t *testing.T) {
	inner := &countingGeocoder{geo: domain.Geo{Lat: 1, Lon: 2}, ok: true}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _, _ = cached.Resolve(context.Background(), "Japan")
	_, _, _ = cached.Resolve(context.Background(), "Brazil")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_NoMatchNotCached(t *testing.T) {
	inner := &countingGeocoder{ok: false}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, ok, err := cached.Resolve(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, _ = cached.Resolve(context.Background(), "Atlantis")
	assert.Equal(t, 2, inner.calls, "no-match responses should be retried")
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _, err := cached.Resolve(context.Background(), "Japan")
	require.Error(t, err)

	_, _, _ = cached.Resolve(context.Background(), "Japan")
	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.Geo{Lat: 1})
	c.put("b", domain.Geo{Lat: 2})

	geo, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, geo.Lat)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Geo{Lat: 1})
	c.put("b", domain.Geo{Lat: 2})
	c.put("c", domain.Geo{Lat: 3}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	geo, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, geo.Lat)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Geo{Lat: 1})
	c.put("b", domain.Geo{Lat: 2})

	c.get("a")

	c.put("c", domain.Geo{Lat: 3}) // should evict "b", not "a"

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Geo{Lat: 1})
	c.put("a", domain.Geo{Lat: 9})

	geo, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 9.0, geo.Lat)
}
