package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/finalize"
	"github.com/reelmap/locations-cli/internal/hoods"
)

var hoodsShapefile string

var hoodsCmd = &cobra.Command{
	Use:   "hoods",
	Short: "Backfill missing neighborhoods from a shapefile",
	Long:  "Downloads a neighborhoods shapefile, looks up each resolved row missing a neighborhood by point-in-polygon, and rewrites the stored table and CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shapefileURL := hoodsShapefile
		if shapefileURL == "" {
			shapefileURL = cfg.Hoods.ShapefileURL
		}
		if shapefileURL == "" {
			return eris.New("hoods: no shapefile URL (set --shapefile or hoods.shapefile_url)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		rows, err := st.ResolvedRows(ctx)
		if err != nil {
			return eris.Wrap(err, "load resolved rows")
		}
		if len(rows) == 0 {
			return eris.New("no resolved rows in store; run resolve first")
		}

		n, err := hoods.Load(ctx, shapefileURL, os.TempDir(), cfg.Hoods.NameField)
		if err != nil {
			return eris.Wrap(err, "load neighborhoods")
		}
		zap.L().Info("neighborhood polygons loaded", zap.Int("areas", n.Len()))

		updated := n.Backfill(rows)
		if updated == 0 {
			fmt.Println("No rows needed backfilling")
			return nil
		}

		if _, err := st.ReplaceResolvedRows(ctx, rows); err != nil {
			return eris.Wrap(err, "store backfilled rows")
		}

		path := filepath.Join(cfg.Output.Dir, cfg.Output.ResolvedCSV)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		if err := finalize.WriteCSV(f, rows); err != nil {
			return err
		}

		fmt.Printf("Backfilled %d of %d rows -> %s\n", updated, len(rows), path)
		return nil
	},
}

func init() {
	hoodsCmd.Flags().StringVar(&hoodsShapefile, "shapefile", "", "shapefile ZIP URL (http:// or ftp://)")
	rootCmd.AddCommand(hoodsCmd)
}
