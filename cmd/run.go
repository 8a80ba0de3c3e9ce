package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/pipeline"
	"github.com/reelmap/locations-cli/internal/publish"
)

var (
	runSkipFetch  bool
	runSkipUpload bool
	runSnapshot   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, resolve, enrich, publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
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

		var uploader *publish.Uploader
		if !runSkipUpload && !cfg.Publish.SkipUpload {
			uploader = publish.NewUploader(cfg.Publish.Bucket, cfg.Publish.AWSPath)
		}

		p := pipeline.New(cfg, st, initFetcher(), initOMDB(), uploader, profile)

		result, err := p.Run(ctx, pipeline.Options{
			SkipFetch:    runSkipFetch,
			SnapshotPath: runSnapshot,
			SkipUpload:   runSkipUpload || cfg.Publish.SkipUpload,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("pipeline finished",
			zap.String("run_id", result.RunID),
			zap.Int("resolved", result.Resolved),
			zap.String("output", result.OutputPath),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runSkipFetch, "skip-fetch", false, "reuse the film locations already in the store")
	runCmd.Flags().StringVar(&runSnapshot, "snapshot", "", "read film locations from a local snapshot instead of the API")
	runCmd.Flags().BoolVar(&runSkipUpload, "skip-upload", false, "skip the S3 upload stage")
	rootCmd.AddCommand(runCmd)
}
