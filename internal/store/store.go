// Package store persists fetched, resolved, and enriched film-location
// tables plus the pipeline run log, on SQLite or Postgres.
package store

import (
	"context"

	"github.com/reelmap/locations-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the location pipeline.
type Store interface {
	// Film locations (raw fetch)
	ReplaceFilmLocations(ctx context.Context, rows []model.FilmLocation) (int, error)
	FilmLocations(ctx context.Context) ([]model.FilmLocation, error)

	// Resolved locations (published table)
	ReplaceResolvedRows(ctx context.Context, rows []model.ResolvedRow) (int, error)
	ResolvedRows(ctx context.Context) ([]model.ResolvedRow, error)

	// Film metadata
	UpsertFilmMeta(ctx context.Context, metas []model.FilmMeta) (int, error)
	FilmMeta(ctx context.Context) ([]model.FilmMeta, error)

	// Run log
	CreateRun(ctx context.Context) (*model.PipelineRun, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.PipelineRun, error)
	StartStage(ctx context.Context, runID, stage string) error
	FinishStage(ctx context.Context, res model.StageResult) error
	ListStages(ctx context.Context, runID string) ([]model.StageResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
