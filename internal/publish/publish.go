// Package publish uploads the processed dataset to S3 via the AWS CLI.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Uploader copies files to an S3 bucket using the aws CLI.
type Uploader struct {
	binPath string
	bucket  string
}

// NewUploader creates an Uploader for the given bucket. If binPath is empty,
// "aws" is used.
func NewUploader(bucket, binPath string) *Uploader {
	if binPath == "" {
		binPath = "aws"
	}
	return &Uploader{binPath: binPath, bucket: bucket}
}

// Upload runs `aws s3 cp` for the local file to s3://bucket/key. Stdout is
// logged; a missing binary or non-zero exit is an error.
func (u *Uploader) Upload(ctx context.Context, localPath, key string) error {
	log := zap.L().With(zap.String("component", "publish"))

	if u.bucket == "" {
		return eris.New("publish: bucket not configured")
	}
	if _, err := os.Stat(localPath); err != nil {
		return eris.Wrapf(err, "publish: local file %s", localPath)
	}

	dest := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	log.Info("uploading to s3",
		zap.String("file", localPath),
		zap.String("dest", dest),
	)

	cmd := exec.CommandContext(ctx, u.binPath, "s3", "cp", localPath, dest)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "publish: aws s3 cp to %s: %s", dest, stderr.String())
	}

	log.Info("upload complete",
		zap.String("dest", dest),
		zap.String("output", stdout.String()),
	)
	return nil
}
