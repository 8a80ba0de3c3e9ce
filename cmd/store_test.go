//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmap/locations-cli/internal/config"
	"github.com/reelmap/locations-cli/internal/store"
)

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "test.db")

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, ok := st.(*store.SQLiteStore)
	assert.True(t, ok)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "mssql"

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitProfile_BuiltinLeavesConfig(t *testing.T) {
	cfg = &config.Config{}
	cfg.Socrata.Host = "https://example.test"
	cfg.Socrata.AddressDataset = "aaaa-1111"

	p, err := initProfile()
	require.NoError(t, err)

	assert.Equal(t, "San Francisco", p.Name)
	// The built-in profile never overrides explicit configuration.
	assert.Equal(t, "https://example.test", cfg.Socrata.Host)
	assert.Equal(t, "aaaa-1111", cfg.Socrata.AddressDataset)
}

func TestInitProfile_FileOverridesConfig(t *testing.T) {
	yaml := `
city:
  name: Oakland
  socrata_host: https://data.oaklandca.gov
  address_dataset: abcd-1234
  film_dataset: wxyz-5678
`
	path := filepath.Join(t.TempDir(), "city.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg = &config.Config{}
	cfg.Socrata.Host = "https://data.sfgov.org"
	cfg.City.Profile = path

	p, err := initProfile()
	require.NoError(t, err)

	assert.Equal(t, "Oakland", p.Name)
	assert.Equal(t, "https://data.oaklandca.gov", cfg.Socrata.Host)
	assert.Equal(t, "abcd-1234", cfg.Socrata.AddressDataset)
	assert.Equal(t, "wxyz-5678", cfg.Socrata.FilmDataset)
}

func TestInitOMDB_NoKey(t *testing.T) {
	cfg = &config.Config{}
	assert.Nil(t, initOMDB())
}
