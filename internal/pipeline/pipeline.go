// Package pipeline orchestrates the fetch, resolve, enrich, and publish
// stages and records each one in the store's run log.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/city"
	"github.com/reelmap/locations-cli/internal/config"
	"github.com/reelmap/locations-cli/internal/fetcher"
	"github.com/reelmap/locations-cli/internal/films"
	"github.com/reelmap/locations-cli/internal/finalize"
	"github.com/reelmap/locations-cli/internal/landmarks"
	"github.com/reelmap/locations-cli/internal/match"
	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/publish"
	"github.com/reelmap/locations-cli/internal/registry"
	"github.com/reelmap/locations-cli/internal/socrata"
	"github.com/reelmap/locations-cli/internal/store"
	"github.com/reelmap/locations-cli/pkg/omdb"
)

// Stage names as recorded in the run log.
const (
	StageFetch   = "fetch"
	StageResolve = "resolve"
	StageEnrich  = "enrich"
	StagePublish = "publish"
)

// Pipeline runs the full location workflow end to end.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	profile  *city.Profile
	socrata  *socrata.Client
	fetch    fetcher.Fetcher
	omdb     omdb.Client
	uploader *publish.Uploader
}

// Options toggles the skippable stages of a run.
type Options struct {
	// SkipFetch reuses the rows already in the store.
	SkipFetch bool

	// SnapshotPath reads film rows from a local snapshot file instead of
	// the API. Ignored when SkipFetch is set.
	SnapshotPath string

	SkipUpload bool
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Status     model.RunStatus
	Stages     []model.StageResult
	Resolved   int
	OutputPath string
}

// New wires a pipeline from its dependencies. omdbClient may be nil, which
// skips the enrich stage; uploader may be nil, which skips the upload.
func New(
	cfg *config.Config,
	st store.Store,
	f fetcher.Fetcher,
	omdbClient omdb.Client,
	uploader *publish.Uploader,
	profile *city.Profile,
) *Pipeline {
	if profile == nil {
		profile = city.SanFrancisco()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		profile: profile,
		socrata: socrata.NewClient(cfg.Socrata.Host,
			socrata.WithAppToken(cfg.Socrata.AppToken),
			socrata.WithFetcher(f),
		),
		fetch:    f,
		omdb:     omdbClient,
		uploader: uploader,
	}
}

// Run executes the staged workflow. The first stage error aborts the run;
// the run log records whatever completed before the failure.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	result := &Result{RunID: run.ID}
	log.Info("pipeline: run started", zap.String("run_id", run.ID))

	// Stage bookkeeping. The run log is best-effort; a bookkeeping failure
	// never aborts the data work.
	runStage := func(name string, fn func() (int, error)) error {
		if startErr := p.store.StartStage(ctx, run.ID, name); startErr != nil {
			log.Warn("pipeline: failed to record stage start",
				zap.String("stage", name), zap.Error(startErr))
		}

		start := time.Now()
		rows, stageErr := fn()
		finished := time.Now().UTC()

		res := model.StageResult{
			RunID:      run.ID,
			Stage:      name,
			Rows:       rows,
			FinishedAt: &finished,
		}
		if stageErr != nil {
			res.Status = model.StageStatusFailed
			res.Error = stageErr.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(stageErr),
			)
		} else {
			res.Status = model.StageStatusComplete
			log.Info("pipeline: stage complete",
				zap.String("stage", name),
				zap.Int("rows", rows),
				zap.Duration("elapsed", time.Since(start)),
			)
		}

		if finishErr := p.store.FinishStage(ctx, res); finishErr != nil {
			log.Warn("pipeline: failed to record stage finish",
				zap.String("stage", name), zap.Error(finishErr))
		}
		result.Stages = append(result.Stages, res)
		return stageErr
	}

	skipStage := func(name, reason string) {
		if startErr := p.store.StartStage(ctx, run.ID, name); startErr != nil {
			log.Warn("pipeline: failed to record stage start",
				zap.String("stage", name), zap.Error(startErr))
		}
		finished := time.Now().UTC()
		res := model.StageResult{
			RunID:      run.ID,
			Stage:      name,
			Status:     model.StageStatusSkipped,
			FinishedAt: &finished,
		}
		if finishErr := p.store.FinishStage(ctx, res); finishErr != nil {
			log.Warn("pipeline: failed to record stage finish",
				zap.String("stage", name), zap.Error(finishErr))
		}
		result.Stages = append(result.Stages, res)
		log.Info("pipeline: stage skipped",
			zap.String("stage", name), zap.String("reason", reason))
	}

	fail := func(stageErr error) (*Result, error) {
		result.Status = model.RunStatusFailed
		if finishErr := p.store.FinishRun(ctx, run.ID, model.RunStatusFailed, stageErr.Error()); finishErr != nil {
			log.Warn("pipeline: failed to record run failure", zap.Error(finishErr))
		}
		return result, stageErr
	}

	// ----- fetch -----
	var filmRows []model.FilmLocation
	if opts.SkipFetch {
		skipStage(StageFetch, "reusing stored rows")
	} else {
		if err := runStage(StageFetch, func() (int, error) {
			rows, fetchErr := p.fetchFilms(ctx, opts.SnapshotPath)
			if fetchErr != nil {
				return 0, fetchErr
			}
			filmRows = rows
			return len(rows), nil
		}); err != nil {
			return fail(err)
		}
	}

	// ----- resolve -----
	var resolved []model.ResolvedRow
	if err := runStage(StageResolve, func() (int, error) {
		rows, resolveErr := p.resolve(ctx, filmRows)
		if resolveErr != nil {
			return 0, resolveErr
		}
		resolved = rows
		return len(rows), nil
	}); err != nil {
		return fail(err)
	}
	result.Resolved = len(resolved)
	result.OutputPath = p.resolvedOutputPath()

	// ----- enrich -----
	if p.omdb == nil {
		skipStage(StageEnrich, "no omdb key configured")
	} else {
		if err := runStage(StageEnrich, func() (int, error) {
			n, enrichErr := p.enrich(ctx, resolved)
			if enrichErr != nil {
				return 0, enrichErr
			}
			return n, nil
		}); err != nil {
			return fail(err)
		}
		result.OutputPath = p.outputPath(p.cfg.Output.EnrichedCSV)
	}

	// ----- publish -----
	if opts.SkipUpload || p.uploader == nil {
		skipStage(StagePublish, "upload disabled")
	} else {
		localPath := result.OutputPath
		if err := runStage(StagePublish, func() (int, error) {
			if uploadErr := p.uploader.Upload(ctx, localPath, p.cfg.Publish.Key); uploadErr != nil {
				return 0, uploadErr
			}
			return len(resolved), nil
		}); err != nil {
			return fail(err)
		}
	}

	result.Status = model.RunStatusComplete
	if finishErr := p.store.FinishRun(ctx, run.ID, model.RunStatusComplete, ""); finishErr != nil {
		log.Warn("pipeline: failed to record run completion", zap.Error(finishErr))
	}
	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.Int("resolved", len(resolved)),
		zap.String("output", result.OutputPath),
	)
	return result, nil
}

// fetchFilms pulls the film-location dataset, or reads a local snapshot when
// one is given, and replaces the stored copy either way.
func (p *Pipeline) fetchFilms(ctx context.Context, snapshotPath string) ([]model.FilmLocation, error) {
	var rows []model.FilmLocation
	var err error
	if snapshotPath != "" {
		rows, err = films.ReadSnapshot(ctx, snapshotPath)
	} else {
		rows, err = films.Fetch(ctx, p.socrata, p.cfg.Socrata.FilmDataset, p.cfg.Socrata.FilmLimit)
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.store.ReplaceFilmLocations(ctx, rows); err != nil {
		return nil, eris.Wrap(err, "pipeline: store film locations")
	}
	return rows, nil
}

// resolve matches every location mention against the address registry and
// landmark table, persists the survivors, and writes the published table.
// A nil filmRows means the fetch stage was skipped and the stored rows are
// reused.
func (p *Pipeline) resolve(ctx context.Context, filmRows []model.FilmLocation) ([]model.ResolvedRow, error) {
	if filmRows == nil {
		stored, err := p.store.FilmLocations(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load stored film locations")
		}
		if len(stored) == 0 {
			return nil, eris.New("pipeline: no stored film locations; run fetch first")
		}
		filmRows = stored
	}

	reg, err := registry.NewLoader(p.socrata, p.cfg.Socrata.AddressDataset, p.cfg.Socrata.PageSize, p.profile).Load(ctx)
	if err != nil {
		return nil, err
	}

	lms, err := landmarks.NewLoader(
		landmarks.NewCSVCache(p.cfg.Landmarks.CachePath),
		landmarks.NewScraper(p.fetch, p.cfg.Landmarks.SourceURL),
	).Load(ctx)
	if err != nil {
		return nil, err
	}

	threshold := p.cfg.Match.LandmarkThreshold
	if p.profile.LandmarkThreshold > 0 {
		threshold = p.profile.LandmarkThreshold
	}

	queries := films.Queries(filmRows)
	results := match.NewMatcher(reg, lms, threshold).Resolve(queries)
	resolved := finalize.Rows(queries, results, reg)

	if _, err := p.store.ReplaceResolvedRows(ctx, resolved); err != nil {
		return nil, eris.Wrap(err, "pipeline: store resolved rows")
	}
	if err := p.writeResolved(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// enrich looks up film metadata for the resolved titles, persists it, and
// writes the merged table.
func (p *Pipeline) enrich(ctx context.Context, resolved []model.ResolvedRow) (int, error) {
	queries := finalize.MetaQueries(resolved)
	found := omdb.Batch(ctx, p.omdb, queries, p.cfg.OMDB.Concurrency)

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

	if _, err := p.store.UpsertFilmMeta(ctx, metas); err != nil {
		return 0, eris.Wrap(err, "pipeline: store film metadata")
	}

	path := p.outputPath(p.cfg.Output.EnrichedCSV)
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "pipeline: create %s", path)
	}
	defer f.Close()
	if err := finalize.WriteEnrichedCSV(f, resolved, metas); err != nil {
		return 0, err
	}
	return len(metas), nil
}

// writeResolved writes the published table in the configured format.
func (p *Pipeline) writeResolved(rows []model.ResolvedRow) error {
	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create output dir %s", p.cfg.Output.Dir)
	}

	path := p.resolvedOutputPath()
	if p.cfg.Output.Format == "xlsx" {
		return finalize.WriteXLSX(path, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "pipeline: create %s", path)
	}
	defer f.Close()
	return finalize.WriteCSV(f, rows)
}

func (p *Pipeline) resolvedOutputPath() string {
	if p.cfg.Output.Format == "xlsx" {
		return p.outputPath(xlsxName(p.cfg.Output.ResolvedCSV))
	}
	return p.outputPath(p.cfg.Output.ResolvedCSV)
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.cfg.Output.Dir, name)
}

func xlsxName(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + ".xlsx"
}
