// Package films fetches the film-locations dataset and prepares location
// queries for matching.
package films

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/socrata"
)

// filmRow mirrors one row of the film-locations dataset.
type filmRow struct {
	Title        string `json:"title"`
	ReleaseYear  string `json:"release_year"`
	Locations    string `json:"locations"`
	Neighborhood string `json:"analysis_neighborhood"`
	FunFacts     string `json:"fun_facts"`
	Director     string `json:"director"`
}

// Fetch pulls up to limit film-location rows from the dataset.
func Fetch(ctx context.Context, client *socrata.Client, dataset string, limit int) ([]model.FilmLocation, error) {
	if limit <= 0 {
		limit = 10000
	}

	rows, err := socrata.Rows[filmRow](ctx, client, dataset, socrata.Query{Limit: limit})
	if err != nil {
		return nil, eris.Wrapf(err, "films: fetch %s", dataset)
	}

	out := make([]model.FilmLocation, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.FilmLocation{
			Title:        r.Title,
			ReleaseYear:  r.ReleaseYear,
			Locations:    r.Locations,
			Neighborhood: r.Neighborhood,
			FunFacts:     r.FunFacts,
			Director:     r.Director,
		})
	}

	zap.L().Info("film locations fetched",
		zap.String("dataset", dataset),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

// Queries builds one LocationQuery per film-location row, in row order.
func Queries(rows []model.FilmLocation) []model.LocationQuery {
	out := make([]model.LocationQuery, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.QueryFromLocation(r))
	}
	return out
}
