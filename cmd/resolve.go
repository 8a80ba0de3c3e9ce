package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reelmap/locations-cli/internal/pipeline"
)

var (
	resolveSkipFetch bool
	resolveSnapshot  string
	resolveFormat    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve film locations to registered addresses",
	Long:  "Fetches film locations (unless --skip-fetch or --snapshot), matches each against the address registry with the landmark fallback, and writes the published table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("resolve"); err != nil {
			return err
		}
		if resolveFormat != "" {
			if resolveFormat != "csv" && resolveFormat != "xlsx" {
				return eris.Errorf("unsupported format %q (csv or xlsx)", resolveFormat)
			}
			cfg.Output.Format = resolveFormat
		}

		profile, err := initProfile()
		if err != nil {
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

		// Enrich and publish are out of scope here; the pipeline records
		// them as skipped.
		p := pipeline.New(cfg, st, initFetcher(), nil, nil, profile)

		result, err := p.Run(ctx, pipeline.Options{
			SkipFetch:    resolveSkipFetch,
			SnapshotPath: resolveSnapshot,
			SkipUpload:   true,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		fmt.Printf("Resolved %d locations -> %s\n", result.Resolved, result.OutputPath)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveSkipFetch, "skip-fetch", false, "reuse the film locations already in the store")
	resolveCmd.Flags().StringVar(&resolveSnapshot, "snapshot", "", "read film locations from a local snapshot instead of the API")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "", "output format: csv or xlsx (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
