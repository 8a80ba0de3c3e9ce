package films

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/fetcher"
	"github.com/reelmap/locations-cli/internal/model"
)

var snapshotColumns = []string{
	"title", "release_year", "locations", "nhood", "fun_facts", "director",
}

// WriteSnapshot saves raw film-location rows as a CSV snapshot that a later
// resolve run can use instead of the API.
func WriteSnapshot(path string, rows []model.FilmLocation) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "films: create snapshot dir %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "films: create snapshot %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(snapshotColumns); err != nil {
		return eris.Wrap(err, "films: write snapshot header")
	}
	for _, r := range rows {
		rec := []string{r.Title, r.ReleaseYear, r.Locations, r.Neighborhood, r.FunFacts, r.Director}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "films: write snapshot row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "films: flush snapshot")
}

// ReadSnapshot loads film locations from a local snapshot. CSV by default;
// .xlsx files go through the shared XLSX reader. Columns are located by
// header name, so column order does not matter.
func ReadSnapshot(ctx context.Context, path string) ([]model.FilmLocation, error) {
	var header []string
	var rows [][]string

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		all, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "films: read snapshot %s", path)
		}
		if len(all) == 0 {
			return nil, eris.Errorf("films: snapshot %s is empty", path)
		}
		header, rows = all[0], all[1:]
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "films: open snapshot %s", path)
		}
		defer f.Close() //nolint:errcheck

		headerCh := make(chan []string, 1)
		rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
			HasHeader: true,
			HeaderCh:  headerCh,
		})
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return nil, eris.Wrapf(err, "films: read snapshot %s", path)
		}
		select {
		case header = <-headerCh:
		default:
			return nil, eris.Errorf("films: snapshot %s is empty", path)
		}
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	col := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := colIdx[name]; ok && i < len(row) {
				if v := row[i]; v != "" {
					return v
				}
			}
		}
		return ""
	}

	out := make([]model.FilmLocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.FilmLocation{
			Title:        col(row, "title"),
			ReleaseYear:  col(row, "release_year"),
			Locations:    col(row, "locations"),
			Neighborhood: col(row, "nhood", "analysis_neighborhood"),
			FunFacts:     col(row, "fun_facts"),
			Director:     col(row, "director"),
		})
	}
	return out, nil
}
