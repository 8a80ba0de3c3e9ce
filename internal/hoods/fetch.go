package hoods

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/fetcher"
)

// Load downloads a neighborhoods shapefile archive, extracts it, and reads
// the polygons. The URL may be http(s):// or ftp://.
func Load(ctx context.Context, rawURL, tempDir, fieldName string) (*Neighborhoods, error) {
	log := zap.L().With(zap.String("component", "hoods"))

	f, err := fetcher.ForURL(rawURL, 120*time.Second)
	if err != nil {
		return nil, eris.Wrap(err, "hoods: resolve shapefile fetcher")
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "hoods: create temp dir")
	}

	zipPath := filepath.Join(tempDir, "neighborhoods.zip")
	log.Info("downloading neighborhoods shapefile", zap.String("url", rawURL))
	if _, err := f.DownloadToFile(ctx, rawURL, zipPath); err != nil {
		return nil, eris.Wrap(err, "hoods: download shapefile archive")
	}

	extractDir := filepath.Join(tempDir, "neighborhoods")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "hoods: create extract dir")
	}
	if _, err := fetcher.ExtractZIP(zipPath, extractDir); err != nil {
		return nil, eris.Wrap(err, "hoods: extract shapefile archive")
	}

	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return nil, err
	}

	hoods, err := ReadShapefile(shpPath, fieldName)
	if err != nil {
		return nil, err
	}
	log.Info("neighborhoods loaded", zap.Int("areas", hoods.Len()))
	return hoods, nil
}

// findFileByExt returns the first file under dir with the given extension.
// Archives sometimes nest the shapefile in a subdirectory.
func findFileByExt(dir, ext string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "hoods: scan %s", dir)
	}
	if found == "" {
		return "", eris.Errorf("hoods: no %s file under %s", ext, dir)
	}
	return found, nil
}
