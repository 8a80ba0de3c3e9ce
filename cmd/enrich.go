package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/finalize"
	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/pkg/omdb"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich resolved locations with OMDB film metadata",
	Long:  "Looks up each unique title and year from the resolved table in OMDB, stores the metadata, and writes the merged table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		resolved, err := st.ResolvedRows(ctx)
		if err != nil {
			return eris.Wrap(err, "load resolved rows")
		}
		if len(resolved) == 0 {
			return eris.New("no resolved rows in store; run resolve first")
		}

		queries := finalize.MetaQueries(resolved)
		zap.L().Info("looking up film metadata",
			zap.Int("rows", len(resolved)),
			zap.Int("titles", len(queries)),
		)

		found := omdb.Batch(ctx, initOMDB(), queries, cfg.OMDB.Concurrency)

		titles := make([]string, 0, len(found))
		for title := range found {
			titles = append(titles, title)
		}
		sort.Strings(titles)

		metas := make([]model.FilmMeta, 0, len(found))
		for _, title := range titles {
			f := found[title]
			metas = append(metas, model.FilmMeta{
				SearchedTitle: title,
				Title:         f.Title,
				Year:          f.Year,
				Genre:         f.Genre,
				Plot:          f.Plot,
				IMDBRating:    f.IMDBRating,
			})
		}

		if _, err := st.UpsertFilmMeta(ctx, metas); err != nil {
			return eris.Wrap(err, "store film metadata")
		}

		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}
		path := filepath.Join(cfg.Output.Dir, cfg.Output.EnrichedCSV)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		if err := finalize.WriteEnrichedCSV(f, resolved, metas); err != nil {
			return err
		}

		fmt.Printf("Enriched %d of %d titles -> %s\n", len(metas), len(queries), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
