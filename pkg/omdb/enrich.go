package omdb

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Query identifies one title to look up. Year narrows the search when the
// source row carries one; OMDB treats it as a hint, not a filter.
type Query struct {
	Title string
	Year  string
}

// Batch looks up a set of titles in parallel and returns the hits keyed by
// searched title. Individual lookup failures and not-found titles are
// skipped, not fatal; the caller joins whatever came back.
func Batch(ctx context.Context, c Client, queries []Query, concurrency int) map[string]*Film {
	log := zap.L().With(zap.String("component", "omdb.batch"))

	if len(queries) == 0 {
		return map[string]*Film{}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]*Film, len(queries))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, q := range queries {
		eg.Go(func() error {
			film, err := c.Lookup(gCtx, q.Title, q.Year)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					log.Warn("lookup failed", zap.String("title", q.Title), zap.Error(err))
				}
				return nil //nolint:nilerr // individual lookup failures don't fail the batch
			}
			results[i] = film
			return nil
		})
	}

	_ = eg.Wait()

	out := make(map[string]*Film, len(queries))
	for i, q := range queries {
		if results[i] != nil {
			out[q.Title] = results[i]
		}
	}

	log.Info("omdb batch complete",
		zap.Int("queried", len(queries)),
		zap.Int("found", len(out)),
	)
	return out
}
