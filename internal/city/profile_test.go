package city

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanFranciscoDefaults(t *testing.T) {
	p := SanFrancisco()

	assert.Equal(t, "San Francisco", p.Name)
	assert.Equal(t, "3mea-di5p", p.AddressDataset)
	assert.Equal(t, "yitu-d5am", p.FilmDataset)
	assert.Contains(t, p.LandmarkPage, "Designated_Landmarks")
	assert.Equal(t, ", San Francisco, CA", p.GeocodeSuffix)
	require.Len(t, p.StreetAliases, 1)
	assert.Equal(t, "the embarcadero", p.StreetAliases[0].From)
	assert.Equal(t, "embarcadero", p.StreetAliases[0].To)
}

func TestLoadEmptyPathReturnsBuiltin(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco", p.Name)
}

func TestLoadProfileFile(t *testing.T) {
	yaml := `
city:
  name: Oakland
  socrata_host: https://data.oaklandca.gov
  address_dataset: abcd-1234
  film_dataset: wxyz-5678
  landmark_page: https://en.wikipedia.org/wiki/Oakland_landmarks
  landmark_threshold: 85
  street_aliases:
    - { from: "the esplanade", to: "esplanade" }
  bounding_box:
    min_lat: 37.63
    max_lat: 37.89
    min_lon: -122.36
    max_lon: -122.10
`
	dir := t.TempDir()
	path := filepath.Join(dir, "city.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Oakland", p.Name)
	assert.Equal(t, "abcd-1234", p.AddressDataset)
	assert.Equal(t, 85, p.LandmarkThreshold)
	assert.Equal(t, "esplanade", p.ApplyAliases("the esplanade"))
	assert.True(t, p.BoundingBox.Contains(37.80, -122.27))
	assert.False(t, p.BoundingBox.Contains(36.0, -122.27))
}

func TestLoadRejectsNamelessProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "city.yaml")
	require.NoError(t, os.WriteFile(path, []byte("city:\n  socrata_host: x\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestLoadRejectsIncompleteAlias(t *testing.T) {
	yaml := `
city:
  name: Testville
  street_aliases:
    - { from: "something", to: "" }
`
	dir := t.TempDir()
	path := filepath.Join(dir, "city.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "alias")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/city.yaml")
	assert.Error(t, err)
}

func TestApplyAliasesPassthrough(t *testing.T) {
	p := SanFrancisco()
	assert.Equal(t, "embarcadero", p.ApplyAliases("the embarcadero"))
	assert.Equal(t, "lombard", p.ApplyAliases("lombard"))
}

func TestBoundingBoxEdges(t *testing.T) {
	b := SanFrancisco().BoundingBox

	assert.True(t, b.Contains(37.70, -122.40))
	assert.True(t, b.Contains(37.83, -122.35))
	assert.False(t, b.Contains(37.69, -122.40))
	assert.False(t, b.Contains(37.75, -122.34))
}
