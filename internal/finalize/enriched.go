package finalize

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/pkg/omdb"
)

// EnrichedColumns is the merged-table column order: the published columns
// first, then the metadata block keyed by searched_title.
var EnrichedColumns = append(append([]string(nil), Columns...),
	"Title", "Year", "Genre", "Plot", "imdbRating", "searched_title")

// MetaQueries returns the unique (title, release year) pairs worth looking
// up. Rows without a release year are skipped, as are repeats.
func MetaQueries(rows []model.ResolvedRow) []omdb.Query {
	seen := make(map[omdb.Query]bool, len(rows))
	var out []omdb.Query
	for _, r := range rows {
		if r.Title == "" || r.ReleaseYear == nil {
			continue
		}
		q := omdb.Query{Title: r.Title, Year: strconv.Itoa(*r.ReleaseYear)}
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// WriteEnrichedCSV writes the published table left-joined with film metadata
// on title == searched_title. Rows without metadata keep empty meta columns.
func WriteEnrichedCSV(w io.Writer, rows []model.ResolvedRow, metas []model.FilmMeta) error {
	byTitle := make(map[string]model.FilmMeta, len(metas))
	for _, m := range metas {
		byTitle[m.SearchedTitle] = m
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(EnrichedColumns); err != nil {
		return eris.Wrap(err, "finalize: write enriched header")
	}
	for _, r := range rows {
		rec := record(r)
		if m, ok := byTitle[r.Title]; ok {
			rec = append(rec, m.Title, m.Year, m.Genre, m.Plot, m.IMDBRating, m.SearchedTitle)
		} else {
			rec = append(rec, "", "", "", "", "", "")
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "finalize: write enriched row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "finalize: flush enriched csv")
}
