package landmarks

import (
	"context"

	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/model"
)

// Loader returns the landmark table, scraping only on a cache miss.
type Loader struct {
	cache   Cache
	scraper *Scraper
}

// NewLoader creates a load-or-fetch loader over the given cache and scraper.
func NewLoader(cache Cache, scraper *Scraper) *Loader {
	return &Loader{cache: cache, scraper: scraper}
}

// Load returns the cached landmark table, fetching and persisting it first
// when the cache is empty.
func (l *Loader) Load(ctx context.Context) ([]model.LandmarkRecord, error) {
	log := zap.L().With(zap.String("component", "landmarks.loader"))

	records, ok, err := l.cache.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		log.Debug("landmark cache hit", zap.Int("landmarks", len(records)))
		return records, nil
	}

	records, err = l.scraper.Scrape(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Save(records); err != nil {
		return nil, err
	}
	return records, nil
}
