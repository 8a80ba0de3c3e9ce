package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reelmap/locations-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS film_locations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	release_year TEXT,
	locations    TEXT,
	nhood        TEXT,
	fun_facts    TEXT,
	director     TEXT
);

CREATE TABLE IF NOT EXISTS resolved_locations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	release_year   INTEGER,
	release_decade INTEGER,
	raw_text       TEXT,
	address        TEXT NOT NULL,
	latitude       REAL,
	longitude      REAL,
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
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_stages (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME,
	PRIMARY KEY (run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_resolved_nhood ON resolved_locations(nhood);
CREATE INDEX IF NOT EXISTS idx_resolved_decade ON resolved_locations(release_decade);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceFilmLocations(ctx context.Context, rows []model.FilmLocation) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM film_locations`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear film locations")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO film_locations (title, release_year, locations, nhood, fun_facts, director)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare film location insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Title, r.ReleaseYear, r.Locations, r.Neighborhood, r.FunFacts, r.Director); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert film location")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit film locations")
	}
	return len(rows), nil
}

func (s *SQLiteStore) FilmLocations(ctx context.Context) ([]model.FilmLocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, release_year, locations, nhood, fun_facts, director FROM film_locations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list film locations")
	}
	defer rows.Close()

	var out []model.FilmLocation
	for rows.Next() {
		var r model.FilmLocation
		if err := rows.Scan(&r.Title, &r.ReleaseYear, &r.Locations, &r.Neighborhood, &r.FunFacts, &r.Director); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan film location")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate film locations")
}

func (s *SQLiteStore) ReplaceResolvedRows(ctx context.Context, rows []model.ResolvedRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM resolved_locations`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear resolved locations")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO resolved_locations (title, release_year, release_decade, raw_text, address, latitude, longitude, nhood)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare resolved insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.Title, r.ReleaseYear, r.ReleaseDecade, r.RawText,
			r.ResolvedAddress, r.Latitude, r.Longitude, r.Neighborhood,
		); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert resolved location")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit resolved locations")
	}
	return len(rows), nil
}

func (s *SQLiteStore) ResolvedRows(ctx context.Context) ([]model.ResolvedRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, release_year, release_decade, raw_text, address, latitude, longitude, nhood
		 FROM resolved_locations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolved locations")
	}
	defer rows.Close()

	var out []model.ResolvedRow
	for rows.Next() {
		var r model.ResolvedRow
		var year, decade sql.NullInt64
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&r.Title, &year, &decade, &r.RawText, &r.ResolvedAddress, &lat, &lon, &r.Neighborhood); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resolved location")
		}
		r.ReleaseYear = nullInt(year)
		r.ReleaseDecade = nullInt(decade)
		r.Latitude = nullFloat(lat)
		r.Longitude = nullFloat(lon)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate resolved locations")
}

func (s *SQLiteStore) UpsertFilmMeta(ctx context.Context, metas []model.FilmMeta) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO film_meta (searched_title, title, year, genre, plot, imdb_rating)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (searched_title) DO UPDATE SET
		   title = excluded.title, year = excluded.year, genre = excluded.genre,
		   plot = excluded.plot, imdb_rating = excluded.imdb_rating`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare meta upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range metas {
		if _, err := stmt.ExecContext(ctx, m.SearchedTitle, m.Title, m.Year, m.Genre, m.Plot, m.IMDBRating); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert meta %q", m.SearchedTitle)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit film meta")
	}
	return len(metas), nil
}

func (s *SQLiteStore) FilmMeta(ctx context.Context) ([]model.FilmMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT searched_title, title, year, genre, plot, imdb_rating FROM film_meta ORDER BY searched_title`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list film meta")
	}
	defer rows.Close()

	var out []model.FilmMeta
	for rows.Next() {
		var m model.FilmMeta
		if err := rows.Scan(&m.SearchedTitle, &m.Title, &m.Year, &m.Genre, &m.Plot, &m.IMDBRating); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan film meta")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate film meta")
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.PipelineRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), nullString(errMsg), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, error, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.PipelineRun, error) {
	query := `SELECT id, status, error, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) StartStage(ctx context.Context, runID, stage string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_stages (run_id, stage, status, row_count, started_at) VALUES (?, ?, ?, 0, ?)`,
		runID, stage, string(model.StageStatusRunning), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: start stage %s for run %s", stage, runID)
}

func (s *SQLiteStore) FinishStage(ctx context.Context, res model.StageResult) error {
	var finished any
	if res.FinishedAt != nil {
		finished = res.FinishedAt.UTC()
	}

	tag, err := s.db.ExecContext(ctx,
		`UPDATE run_stages SET status = ?, row_count = ?, error = ?, finished_at = ? WHERE run_id = ? AND stage = ?`,
		string(res.Status), res.Rows, nullString(res.Error), finished, res.RunID, res.Stage,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish stage %s for run %s", res.Stage, res.RunID)
	}
	return checkRowsAffected(tag, "stage", res.RunID+"/"+res.Stage)
}

func (s *SQLiteStore) ListStages(ctx context.Context, runID string) ([]model.StageResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, status, row_count, error, started_at, finished_at
		 FROM run_stages WHERE run_id = ? ORDER BY started_at, stage`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list stages for run %s", runID)
	}
	defer rows.Close()

	var stages []model.StageResult
	for rows.Next() {
		var st model.StageResult
		var errMsg sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&st.RunID, &st.Stage, &st.Status, &st.Rows, &errMsg, &st.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage")
		}
		st.Error = errMsg.String
		if finished.Valid {
			f := finished.Time
			st.FinishedAt = &f
			st.Duration = f.Sub(st.StartedAt).Seconds()
		}
		stages = append(stages, st)
	}
	return stages, eris.Wrap(rows.Err(), "sqlite: iterate stages")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var errMsg sql.NullString
	var finished sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &errMsg, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Error = errMsg.String
	if finished.Valid {
		f := finished.Time
		r.FinishedAt = &f
	}
	return &r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
