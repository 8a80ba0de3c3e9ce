package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/city"
	"github.com/reelmap/locations-cli/internal/fetcher"
	"github.com/reelmap/locations-cli/internal/store"
	"github.com/reelmap/locations-cli/pkg/omdb"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "data/reelmap.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initProfile loads the city profile. An explicitly configured profile file
// overrides the Socrata host, dataset IDs, and landmark page from config;
// the built-in default leaves config untouched since both describe the same
// city.
func initProfile() (*city.Profile, error) {
	profile, err := city.Load(cfg.City.Profile)
	if err != nil {
		return nil, err
	}

	if cfg.City.Profile != "" {
		if profile.SocrataHost != "" {
			cfg.Socrata.Host = profile.SocrataHost
		}
		if profile.AddressDataset != "" {
			cfg.Socrata.AddressDataset = profile.AddressDataset
		}
		if profile.FilmDataset != "" {
			cfg.Socrata.FilmDataset = profile.FilmDataset
		}
		if profile.LandmarkPage != "" {
			cfg.Landmarks.SourceURL = profile.LandmarkPage
		}
	}
	return profile, nil
}

func initFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout: time.Duration(cfg.Socrata.TimeoutSecs) * time.Second,
	})
}

// initOMDB returns nil when no API key is configured; callers treat a nil
// client as "skip enrichment".
func initOMDB() omdb.Client {
	if cfg.OMDB.Key == "" {
		return nil
	}
	var opts []omdb.Option
	if cfg.OMDB.RatePerSec > 0 {
		opts = append(opts, omdb.WithRateLimit(float64(cfg.OMDB.RatePerSec)))
	}
	if cfg.OMDB.BaseURL != "" {
		opts = append(opts, omdb.WithBaseURL(cfg.OMDB.BaseURL))
	}
	return omdb.NewClient(cfg.OMDB.Key, opts...)
}
