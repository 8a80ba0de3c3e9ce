// Package geocode resolves free-text addresses to coordinates via the
// OpenStreetMap Nominatim API.
package geocode

import "context"

// Client geocodes free-text queries.
type Client interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for one query. An unmatched query is
// not an error; Matched reports whether the coordinates are usable.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Matched     bool
}
