package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploader_DefaultBin(t *testing.T) {
	u := NewUploader("reelmap-data", "")
	assert.Equal(t, "aws", u.binPath)

	u = NewUploader("reelmap-data", "/opt/aws-cli/bin/aws")
	assert.Equal(t, "/opt/aws-cli/bin/aws", u.binPath)
}

func TestUpload_NoBucket(t *testing.T) {
	u := NewUploader("", "")
	err := u.Upload(context.Background(), "out.csv", "processed_movie_locations.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket not configured")
}

func TestUpload_MissingFile(t *testing.T) {
	u := NewUploader("reelmap-data", "")
	err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local file")
}

func TestUpload_MissingBinary(t *testing.T) {
	local := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(local, []byte("longitude,latitude,title\n"), 0o644))

	u := NewUploader("reelmap-data", filepath.Join(t.TempDir(), "no-such-aws"))
	err := u.Upload(context.Background(), local, "processed_movie_locations.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://reelmap-data/processed_movie_locations.csv")
}
