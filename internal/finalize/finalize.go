// Package finalize joins matched locations back to the registry, applies the
// publish filter, and writes the published table.
package finalize

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/model"
)

// Rows joins each location mention to its match result and the registry row
// carrying its coordinates, then drops rows missing latitude, longitude, or
// title. Input order is preserved.
func Rows(queries []model.LocationQuery, results map[string]model.MatchResult, reg *model.Registry) []model.ResolvedRow {
	log := zap.L().With(zap.String("component", "finalize"))

	out := make([]model.ResolvedRow, 0, len(queries))
	dropped := 0
	for _, q := range queries {
		row := buildRow(q, results[q.NormalizedText], reg)
		if !row.Publishable() {
			dropped++
			continue
		}
		out = append(out, row)
	}

	log.Info("rows finalized",
		zap.Int("published", len(out)),
		zap.Int("dropped", dropped),
	)
	return out
}

func buildRow(q model.LocationQuery, res model.MatchResult, reg *model.Registry) model.ResolvedRow {
	year := parseYear(q.ReleaseYear)
	row := model.ResolvedRow{
		Title:           q.Title,
		ReleaseYear:     year,
		RawText:         q.RawText,
		ResolvedAddress: res.BestGuess,
		// The published table records absent neighborhoods as the literal
		// string "nan"; downstream consumers key on it.
		Neighborhood: "nan",
	}
	if row.ResolvedAddress == "" {
		row.ResolvedAddress = model.Unresolved
	}
	if year != nil {
		d := (*year / 10) * 10
		row.ReleaseDecade = &d
	}
	if res.Resolved() {
		if rec, ok := reg.ByAddress(res.BestGuess); ok {
			row.Latitude = rec.Latitude
			row.Longitude = rec.Longitude
			if rec.Neighborhood != "" {
				row.Neighborhood = rec.Neighborhood
			}
		}
	}
	return row
}

// parseYear coerces a release-year string to an integer, accepting
// float-formatted exports. Anything else is missing, never an error.
func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}
