// Package staticgeo resolves country names from a fixed coordinate table.
//
// The table covers exactly the countries present in the incident dataset;
// anything else yields no coordinate. Resolution is deterministic and
// side-effect-free, which keeps repeated dataset builds byte-identical.
package staticgeo

import (
	"context"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

// countryCoordinates is the fixed country-to-centroid mapping.
var countryCoordinates = map[string]domain.Geo{
	"China":     {Lat: 35.8617, Lon: 104.1954},
	"India":     {Lat: 20.5937, Lon: 78.9629},
	"UK":        {Lat: 55.3781, Lon: -3.4360},
	"Germany":   {Lat: 51.1657, Lon: 10.4515},
	"France":    {Lat: 46.6034, Lon: 1.8883},
	"Australia": {Lat: -25.2744, Lon: 133.7751},
	"Russia":    {Lat: 61.5240, Lon: 105.3188},
	"Brazil":    {Lat: -14.2350, Lon: -51.9253},
	"Japan":     {Lat: 36.2048, Lon: 138.2529},
	"USA":       {Lat: 37.0902, Lon: -95.7129},
}

// Resolver implements domain.Geocoder over the static table.
type Resolver struct{}

// New creates a static table resolver.
func New() *Resolver { return &Resolver{} }

// Resolve looks the country up in the fixed table. It never errors.
func (r *Resolver) Resolve(_ context.Context, country string) (domain.Geo, bool, error) {
	geo, ok := countryCoordinates[country]
	return geo, ok, nil
}

// Countries returns the names the table recognizes, for diagnostics.
func Countries() []string {
	names := make([]string, 0, len(countryCoordinates))
	for name := range countryCoordinates {
		names = append(names, name)
	}
	return names
}
