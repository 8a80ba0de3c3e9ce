// Package landmarks provides the designated-landmarks table used as the
// fallback when no street candidate matches a film location. The table is
// scraped once from a reference page and cached; a populated cache is
// authoritative until deleted.
package landmarks

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/model"
)

// Cache persists the landmark table between runs. A populated cache
// suppresses re-scraping entirely; there is no TTL.
type Cache interface {
	// Load returns the cached records and whether the cache held any.
	Load() ([]model.LandmarkRecord, bool, error)

	// Save replaces the cache contents.
	Save(records []model.LandmarkRecord) error
}

// CSVCache stores landmarks as a two-column CSV file on disk.
type CSVCache struct {
	Path string
}

// NewCSVCache creates a cache backed by the given file path.
func NewCSVCache(path string) *CSVCache {
	return &CSVCache{Path: path}
}

// Load implements Cache. A missing file or a header-only file is a miss,
// not an error.
func (c *CSVCache) Load() ([]model.LandmarkRecord, bool, error) {
	f, err := os.Open(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "landmarks: open cache %s", c.Path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, false, eris.Wrapf(err, "landmarks: read cache %s", c.Path)
	}
	if len(rows) <= 1 {
		return nil, false, nil
	}

	records := make([]model.LandmarkRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		records = append(records, model.LandmarkRecord{Name: row[0], Address: row[1]})
	}
	return records, true, nil
}

// Save implements Cache.
func (c *CSVCache) Save(records []model.LandmarkRecord) error {
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "landmarks: create cache dir %s", dir)
		}
	}

	f, err := os.Create(c.Path)
	if err != nil {
		return eris.Wrapf(err, "landmarks: create cache %s", c.Path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"landmark_name", "address"}); err != nil {
		return eris.Wrap(err, "landmarks: write cache header")
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Name, rec.Address}); err != nil {
			return eris.Wrap(err, "landmarks: write cache row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "landmarks: flush cache")
	}
	return nil
}
