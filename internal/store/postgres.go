package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/db"
	"github.com/reelmap/locations-cli/internal/model"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS film_locations (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	release_year TEXT,
	locations    TEXT,
	nhood        TEXT,
	fun_facts    TEXT,
	director     TEXT
);

CREATE TABLE IF NOT EXISTS resolved_locations (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	release_year   INTEGER,
	release_decade INTEGER,
	raw_text       TEXT,
	address        TEXT NOT NULL,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	nhood          TEXT
);

CREATE TABLE IF NOT EXISTS film_meta (
	searched_title TEXT PRIMARY KEY,
	title          TEXT,
	year           TEXT,
	genre          TEXT,
	plot           TEXT,
	imdb_rating    TEXT
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_stages (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	PRIMARY KEY (run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_resolved_nhood ON resolved_locations(nhood);
CREATE INDEX IF NOT EXISTS idx_resolved_decade ON resolved_locations(release_decade);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceFilmLocations(ctx context.Context, locations []model.FilmLocation) (int, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM film_locations`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear film locations")
	}

	rows := make([][]any, 0, len(locations))
	for _, r := range locations {
		rows = append(rows, []any{r.Title, r.ReleaseYear, r.Locations, r.Neighborhood, r.FunFacts, r.Director})
	}

	n, err := db.CopyFrom(ctx, s.pool, "film_locations",
		[]string{"title", "release_year", "locations", "nhood", "fun_facts", "director"}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) FilmLocations(ctx context.Context) ([]model.FilmLocation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, release_year, locations, nhood, fun_facts, director FROM film_locations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list film locations")
	}
	defer rows.Close()

	var out []model.FilmLocation
	for rows.Next() {
		var r model.FilmLocation
		if err := rows.Scan(&r.Title, &r.ReleaseYear, &r.Locations, &r.Neighborhood, &r.FunFacts, &r.Director); err != nil {
			return nil, eris.Wrap(err, "postgres: scan film location")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate film locations")
}

func (s *PostgresStore) ReplaceResolvedRows(ctx context.Context, resolved []model.ResolvedRow) (int, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM resolved_locations`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear resolved locations")
	}

	rows := make([][]any, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, []any{
			r.Title, r.ReleaseYear, r.ReleaseDecade, r.RawText,
			r.ResolvedAddress, r.Latitude, r.Longitude, r.Neighborhood,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "resolved_locations",
		[]string{"title", "release_year", "release_decade", "raw_text", "address", "latitude", "longitude", "nhood"}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) ResolvedRows(ctx context.Context) ([]model.ResolvedRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, release_year, release_decade, raw_text, address, latitude, longitude, nhood
		 FROM resolved_locations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resolved locations")
	}
	defer rows.Close()

	var out []model.ResolvedRow
	for rows.Next() {
		var r model.ResolvedRow
		if err := rows.Scan(
			&r.Title, &r.ReleaseYear, &r.ReleaseDecade, &r.RawText,
			&r.ResolvedAddress, &r.Latitude, &r.Longitude, &r.Neighborhood,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan resolved location")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate resolved locations")
}

func (s *PostgresStore) UpsertFilmMeta(ctx context.Context, metas []model.FilmMeta) (int, error) {
	rows := make([][]any, 0, len(metas))
	for _, m := range metas {
		rows = append(rows, []any{m.SearchedTitle, m.Title, m.Year, m.Genre, m.Plot, m.IMDBRating})
	}

	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "film_meta",
		Columns:      []string{"searched_title", "title", "year", "genre", "plot", "imdb_rating"},
		ConflictKeys: []string{"searched_title"},
	}, rows); err != nil {
		return 0, err
	}
	return len(metas), nil
}

func (s *PostgresStore) FilmMeta(ctx context.Context) ([]model.FilmMeta, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT searched_title, title, year, genre, plot, imdb_rating FROM film_meta ORDER BY searched_title`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list film meta")
	}
	defer rows.Close()

	var out []model.FilmMeta
	for rows.Next() {
		var m model.FilmMeta
		if err := rows.Scan(&m.SearchedTitle, &m.Title, &m.Year, &m.Genre, &m.Plot, &m.IMDBRating); err != nil {
			return nil, eris.Wrap(err, "postgres: scan film meta")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate film meta")
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.PipelineRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(status), nullString(errMsg), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, error, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanRunPG(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.PipelineRun, error) {
	query := `SELECT id, status, error, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRunPG(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) StartStage(ctx context.Context, runID, stage string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_stages (run_id, stage, status, row_count, started_at) VALUES ($1, $2, $3, 0, $4)`,
		runID, stage, string(model.StageStatusRunning), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: start stage %s for run %s", stage, runID)
}

func (s *PostgresStore) FinishStage(ctx context.Context, res model.StageResult) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE run_stages SET status = $1, row_count = $2, error = $3, finished_at = $4 WHERE run_id = $5 AND stage = $6`,
		string(res.Status), res.Rows, nullString(res.Error), res.FinishedAt, res.RunID, res.Stage,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish stage %s for run %s", res.Stage, res.RunID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("stage not found: %s/%s", res.RunID, res.Stage)
	}
	return nil
}

func (s *PostgresStore) ListStages(ctx context.Context, runID string) ([]model.StageResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, stage, status, row_count, error, started_at, finished_at
		 FROM run_stages WHERE run_id = $1 ORDER BY started_at, stage`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list stages for run %s", runID)
	}
	defer rows.Close()

	var stages []model.StageResult
	for rows.Next() {
		var st model.StageResult
		var errMsg *string
		if err := rows.Scan(&st.RunID, &st.Stage, &st.Status, &st.Rows, &errMsg, &st.StartedAt, &st.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage")
		}
		if errMsg != nil {
			st.Error = *errMsg
		}
		if st.FinishedAt != nil {
			st.Duration = st.FinishedAt.Sub(st.StartedAt).Seconds()
		}
		stages = append(stages, st)
	}
	return stages, eris.Wrap(rows.Err(), "postgres: iterate stages")
}

func scanRunPG(row pgx.Row) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var errMsg *string

	err := row.Scan(&r.ID, &r.Status, &errMsg, &r.StartedAt, &r.FinishedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}
