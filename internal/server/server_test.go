package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmap/locations-cli/internal/city"
	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/store"
	"github.com/reelmap/locations-cli/pkg/geocode"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

type fakeStore struct {
	store.Store
	rows []model.ResolvedRow
}

func (f *fakeStore) ResolvedRows(_ context.Context) ([]model.ResolvedRow, error) {
	return f.rows, nil
}

type fakeGeocoder struct {
	result *geocode.Result
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (*geocode.Result, error) {
	return f.result, f.err
}

func testRows() []model.ResolvedRow {
	return []model.ResolvedRow{
		{
			Title: "Vertigo", ReleaseYear: intPtr(1958), ReleaseDecade: intPtr(1950),
			ResolvedAddress: "900 lombard st",
			Latitude:        floatPtr(37.8021), Longitude: floatPtr(-122.4187),
			Neighborhood: "Russian Hill",
		},
		{
			Title: "Bullitt", ReleaseYear: intPtr(1968), ReleaseDecade: intPtr(1960),
			ResolvedAddress: "1153 taylor st",
			Latitude:        floatPtr(37.7941), Longitude: floatPtr(-122.4133),
			Neighborhood: "Nob Hill",
		},
		{
			Title: "The Rock", ReleaseYear: intPtr(1996), ReleaseDecade: intPtr(1990),
			ResolvedAddress: "alcatraz island",
			Latitude:        floatPtr(37.8267), Longitude: floatPtr(-122.4230),
			Neighborhood: "North Beach",
		},
	}
}

func newTestServer(t *testing.T, rows []model.ResolvedRow, gc geocode.Client) *httptest.Server {
	t.Helper()
	s := New(0, &fakeStore{rows: rows}, gc, city.SanFrancisco().BoundingBox)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, &fakeGeocoder{})

	var body map[string]string
	status := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestLocations(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	var rows []model.ResolvedRow
	status := getJSON(t, srv.URL+"/api/locations", &rows)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, rows, 3)
}

func TestLocations_DecadeFilter(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	var rows []model.ResolvedRow
	status := getJSON(t, srv.URL+"/api/locations?decade=1950", &rows)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vertigo", rows[0].Title)
}

func TestLocations_NhoodFilter(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	var rows []model.ResolvedRow
	status := getJSON(t, srv.URL+"/api/locations?nhood=Nob+Hill", &rows)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bullitt", rows[0].Title)
}

func TestLocations_BadDecade(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	status := getJSON(t, srv.URL+"/api/locations?decade=fifties", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGeocode(t *testing.T) {
	gc := &fakeGeocoder{result: &geocode.Result{
		Latitude: 37.8024, Longitude: -122.4058,
		DisplayName: "Coit Tower, San Francisco",
		Matched:     true,
	}}
	srv := newTestServer(t, nil, gc)

	var body geocodeResponse
	status := getJSON(t, srv.URL+"/api/geocode?q=coit+tower", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 37.8024, body.Latitude, 0.0001)
	assert.Equal(t, "Coit Tower, San Francisco", body.DisplayName)
}

func TestGeocode_MissingQuery(t *testing.T) {
	srv := newTestServer(t, nil, &fakeGeocoder{})

	status := getJSON(t, srv.URL+"/api/geocode", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGeocode_NotFound(t *testing.T) {
	gc := &fakeGeocoder{result: &geocode.Result{Matched: false}}
	srv := newTestServer(t, nil, gc)

	status := getJSON(t, srv.URL+"/api/geocode?q=nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGeocode_OutsideCity(t *testing.T) {
	// Sacramento is a match, but not a San Francisco one.
	gc := &fakeGeocoder{result: &geocode.Result{
		Latitude: 38.5816, Longitude: -121.4944, Matched: true,
	}}
	srv := newTestServer(t, nil, gc)

	status := getJSON(t, srv.URL+"/api/geocode?q=capitol+mall", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestNearby(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	// From the Ferry Building, Nob Hill is closer than Russian Hill, and
	// Alcatraz is farthest.
	var places []nearbyPlace
	status := getJSON(t, srv.URL+"/api/nearby?lat=37.7955&lon=-122.3937", &places)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, places, 3)
	assert.Equal(t, "Bullitt", places[0].Title)
	assert.Equal(t, "1153 Taylor St", places[0].Address)
	assert.Greater(t, places[1].DistanceMeters, places[0].DistanceMeters)
	assert.Greater(t, places[2].DistanceMeters, places[1].DistanceMeters)
}

func TestNearby_LimitsResults(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	var places []nearbyPlace
	status := getJSON(t, srv.URL+"/api/nearby?lat=37.7955&lon=-122.3937&n=1", &places)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, places, 1)
}

func TestNearby_BadCoordinates(t *testing.T) {
	srv := newTestServer(t, testRows(), &fakeGeocoder{})

	status := getJSON(t, srv.URL+"/api/nearby?lat=north&lon=-122.39", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
