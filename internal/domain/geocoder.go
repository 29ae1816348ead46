package domain

import "context"

// Geocoder resolves a country display name to a coordinate.
//
// ok is false when the provider has no match for the name; err is reserved
// for transport-level failures (timeouts, bad responses). Both outcomes are
// recovered locally by the preparer's fallback policy, never raised.
type Geocoder interface {
	Resolve(ctx context.Context, country string) (geo Geo, ok bool, err error)
}
