package model

import "strings"

// FilmLocation is one raw row of the film-locations dataset as fetched. The
// source leaves most fields as free text; coercion happens at finalize.
type FilmLocation struct {
	Title        string `json:"title"`
	ReleaseYear  string `json:"release_year"`
	Locations    string `json:"locations"`
	Neighborhood string `json:"nhood,omitempty"`
	FunFacts     string `json:"fun_facts,omitempty"`
	Director     string `json:"director,omitempty"`
}

// LocationQuery is one film-location mention prepared for matching. Duplicate
// normalized texts across films are expected; they are matched once and the
// result reused.
type LocationQuery struct {
	RawText        string `json:"raw_text"`
	NormalizedText string `json:"normalized_text"`
	Title          string `json:"title"`
	ReleaseYear    string `json:"release_year"`
}

// QueryFromLocation builds the LocationQuery for a raw row. Missing location
// text becomes the Unresolved sentinel so the matcher skips it outright.
func QueryFromLocation(loc FilmLocation) LocationQuery {
	norm := strings.ToLower(strings.TrimSpace(loc.Locations))
	if norm == "" {
		norm = Unresolved
	}
	return LocationQuery{
		RawText:        loc.Locations,
		NormalizedText: norm,
		Title:          loc.Title,
		ReleaseYear:    loc.ReleaseYear,
	}
}

// FilmMeta is the external metadata record for one searched film title.
type FilmMeta struct {
	SearchedTitle string `json:"searched_title"`
	Title         string `json:"Title"`
	Year          string `json:"Year"`
	Genre         string `json:"Genre"`
	Plot          string `json:"Plot"`
	IMDBRating    string `json:"imdbRating"`
}
