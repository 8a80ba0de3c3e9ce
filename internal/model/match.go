package model

// Unresolved is the sentinel recorded when no confident address resolution
// was found for a query. It is a real value, distinct from missing data, and
// survives into intermediate tables (rows carrying it are excluded from the
// published dataset by the coordinate drop filter, not here).
const Unresolved = "Empty"

// MatchResult is the resolution outcome for one unique query text: either a
// registry address string or the Unresolved sentinel. Every LocationQuery
// maps to exactly one MatchResult.
type MatchResult struct {
	QueryText string `json:"query_text"`
	BestGuess string `json:"best_guess"`
	Score     int    `json:"score"`
	Source    string `json:"source,omitempty"`
}

// MatchSource values recorded on MatchResult.Source.
const (
	MatchSourceStreet   = "street"
	MatchSourceLandmark = "landmark"
)

// Resolved reports whether the result carries a usable address.
func (m MatchResult) Resolved() bool {
	return m.BestGuess != "" && m.BestGuess != Unresolved
}

// ResolvedRow is the terminal joined record, one per input film-location row.
type ResolvedRow struct {
	Title           string   `json:"title"`
	ReleaseYear     *int     `json:"release_year"`
	ReleaseDecade   *int     `json:"release_decade"`
	RawText         string   `json:"raw_text"`
	ResolvedAddress string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Neighborhood    string   `json:"nhood"`
}

// Publishable reports whether the row survives the hard drop filter: rows
// lacking latitude, longitude, or title never reach the published dataset.
func (r ResolvedRow) Publishable() bool {
	return r.Latitude != nil && r.Longitude != nil && r.Title != ""
}
