package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/films"
	"github.com/reelmap/locations-cli/internal/socrata"
)

var fetchSnapshot string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch film locations from the open data portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		if _, err := initProfile(); err != nil {
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

		client := socrata.NewClient(cfg.Socrata.Host,
			socrata.WithAppToken(cfg.Socrata.AppToken),
			socrata.WithFetcher(initFetcher()),
		)

		rows, err := films.Fetch(ctx, client, cfg.Socrata.FilmDataset, cfg.Socrata.FilmLimit)
		if err != nil {
			return eris.Wrap(err, "fetch film locations")
		}

		if _, err := st.ReplaceFilmLocations(ctx, rows); err != nil {
			return eris.Wrap(err, "store film locations")
		}

		if fetchSnapshot != "" {
			if err := films.WriteSnapshot(fetchSnapshot, rows); err != nil {
				return eris.Wrap(err, "write snapshot")
			}
			zap.L().Info("snapshot written", zap.String("path", fetchSnapshot))
		}

		fmt.Printf("Fetched %d film locations\n", len(rows))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSnapshot, "snapshot", "", "also write the raw rows to a CSV snapshot at this path")
	rootCmd.AddCommand(fetchCmd)
}
