package films

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/socrata"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/yitu-d5am.json", r.URL.Path)
		assert.Equal(t, "10000", r.URL.Query().Get("$limit"))
		w.Write([]byte(`[
			{"title":"Vertigo","release_year":"1958","locations":"900 Lombard Street","analysis_neighborhood":"Russian Hill","director":"Alfred Hitchcock"},
			{"title":"Bullitt","release_year":"1968","locations":"Coit Tower","fun_facts":"Famous car chase filmed nearby."},
			{"title":"The Rock","release_year":"1996"}
		]`))
	}))
	defer srv.Close()

	rows, err := Fetch(context.Background(), socrata.NewClient(srv.URL), "yitu-d5am", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, model.FilmLocation{
		Title:        "Vertigo",
		ReleaseYear:  "1958",
		Locations:    "900 Lombard Street",
		Neighborhood: "Russian Hill",
		Director:     "Alfred Hitchcock",
	}, rows[0])
	assert.Equal(t, "Famous car chase filmed nearby.", rows[1].FunFacts)
	assert.Empty(t, rows[2].Locations)
}

func TestFetch_CustomLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "250", r.URL.Query().Get("$limit"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rows, err := Fetch(context.Background(), socrata.NewClient(srv.URL), "yitu-d5am", 250)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), socrata.NewClient(srv.URL), "yitu-d5am", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yitu-d5am")
}

func TestQueries(t *testing.T) {
	rows := []model.FilmLocation{
		{Title: "Vertigo", ReleaseYear: "1958", Locations: "  900 Lombard Street "},
		{Title: "The Rock", ReleaseYear: "1996"},
	}

	queries := Queries(rows)
	require.Len(t, queries, 2)

	assert.Equal(t, "900 lombard street", queries[0].NormalizedText)
	assert.Equal(t, "Vertigo", queries[0].Title)
	assert.Equal(t, "1958", queries[0].ReleaseYear)

	// Rows without location text carry the sentinel so matching skips them.
	assert.Equal(t, model.Unresolved, queries[1].NormalizedText)
	assert.Empty(t, queries[1].RawText)
}

func TestSnapshotRoundTrip(t *testing.T) {
	rows := []model.FilmLocation{
		{Title: "Vertigo", ReleaseYear: "1958", Locations: "900 Lombard Street", Neighborhood: "Russian Hill", Director: "Alfred Hitchcock"},
		{Title: "Bullitt", ReleaseYear: "1968", Locations: "Coit Tower", FunFacts: "Famous car chase, with a comma."},
		{Title: "The Rock", ReleaseYear: "1996"},
	}

	path := filepath.Join(t.TempDir(), "snapshots", "film_locations.csv")
	require.NoError(t, WriteSnapshot(path, rows))

	got, err := ReadSnapshot(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadSnapshot_ColumnOrder(t *testing.T) {
	// Columns shuffled and the neighborhood under its dataset name.
	csv := "locations,analysis_neighborhood,title,release_year\n" +
		"900 Lombard Street,Russian Hill,Vertigo,1958\n"
	path := filepath.Join(t.TempDir(), "film_locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	got, err := ReadSnapshot(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Vertigo", got[0].Title)
	assert.Equal(t, "900 Lombard Street", got[0].Locations)
	assert.Equal(t, "Russian Hill", got[0].Neighborhood)
}

func TestReadSnapshot_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "film_locations.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, row := range [][]string{
		{"title", "release_year", "locations", "nhood", "fun_facts", "director"},
		{"Dirty Harry", "1971", "City Hall", "", "", "Don Siegel"},
	} {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	require.NoError(t, f.Save(path))

	got, err := ReadSnapshot(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dirty Harry", got[0].Title)
	assert.Equal(t, "City Hall", got[0].Locations)
	assert.Equal(t, "Don Siegel", got[0].Director)
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	_, err := ReadSnapshot(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
