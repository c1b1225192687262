package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/db"
	"github.com/sells-group/saferoute/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// newPostgresWithPool wraps an existing pool; tests pass a pgxmock pool.
func newPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS observations (
	id     BIGSERIAL PRIMARY KEY,
	lat    DOUBLE PRECISION NOT NULL,
	lon    DOUBLE PRECISION NOT NULL,
	crimes DOUBLE PRECISION NOT NULL,
	source TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	format      TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_observations_lat_lon ON observations(lat, lon);
CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertObservations(ctx context.Context, obs []model.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(obs))
	for i, o := range obs {
		rows[i] = []any{o.Lat, o.Lon, o.Crimes, o.Source}
	}
	return db.CopyFrom(ctx, s.pool, "observations", []string{"lat", "lon", "crimes", "source"}, rows)
}

func (s *PostgresStore) ListObservations(ctx context.Context) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lat, lon, crimes, source FROM observations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list observations")
	}
	defer rows.Close()

	var obs []model.Observation
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.ID, &o.Lat, &o.Lon, &o.Crimes, &o.Source); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate observations")
	}
	return obs, nil
}

func (s *PostgresStore) CountObservations(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count observations")
	}
	return n, nil
}

func (s *PostgresStore) RecordImport(ctx context.Context, rec model.ImportRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO imports (id, source, format, rows, skipped, imported_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Source, rec.Format, rec.Rows, rec.Skipped, rec.ImportedAt.UTC())
	return eris.Wrap(err, "postgres: record import")
}

func (s *PostgresStore) ListImports(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, format, rows, skipped, imported_at FROM imports ORDER BY imported_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var recs []model.ImportRecord
	for rows.Next() {
		var r model.ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.Format, &r.Rows, &r.Skipped, &r.ImportedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate imports")
	}
	return recs, nil
}
