package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reelmap/locations-cli/internal/publish"
)

var publishFile string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the published table to S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("publish"); err != nil {
			return err
		}

		local := publishFile
		if local == "" {
			local = filepath.Join(cfg.Output.Dir, cfg.Output.EnrichedCSV)
		}

		uploader := publish.NewUploader(cfg.Publish.Bucket, cfg.Publish.AWSPath)
		if err := uploader.Upload(ctx, local, cfg.Publish.Key); err != nil {
			return eris.Wrap(err, "publish")
		}

		fmt.Printf("Uploaded %s to s3://%s/%s\n", local, cfg.Publish.Bucket, cfg.Publish.Key)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishFile, "file", "", "local file to upload (default: the enriched table)")
	rootCmd.AddCommand(publishCmd)
}
