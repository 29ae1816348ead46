package staticgeo

import (
	"context"
	"testing"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownCountries(t *testing.T) {
	tests := []struct {
		country string
		want    domain.Geo
	}{
		{country: "USA", want: domain.Geo{Lat: 37.0902, Lon: -95.7129}},
		{country: "UK", want: domain.Geo{Lat: 55.3781, Lon: -3.4360}},
		{country: "Australia", want: domain.Geo{Lat: -25.2744, Lon: 133.7751}},
		{country: "Brazil", want: domain.Geo{Lat: -14.2350, Lon: -51.9253}},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			geo, ok, err := r.Resolve(context.Background(), tt.country)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, geo)
		})
	}
}

func TestResolve_UnknownCountry(t *testing.T) {
	r := New()
	_, ok, err := r.Resolve(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_CaseSensitive(t *testing.T) {
	// The table keys on display names exactly; "usa" is not a match.
	r := New()
	_, ok, err := r.Resolve(context.Background(), "usa")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountries_TableSize(t *testing.T) {
	assert.Len(t, Countries(), 10)
}
