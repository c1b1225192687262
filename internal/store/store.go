// Package store persists crime observations and import provenance. Two
// backends exist: SQLite for single-node use and Postgres for shared
// deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/model"
)

// Store defines the persistence interface for crime observation data.
type Store interface {
	// Observations
	InsertObservations(ctx context.Context, obs []model.Observation) (int64, error)
	ListObservations(ctx context.Context) ([]model.Observation, error)
	CountObservations(ctx context.Context) (int64, error)

	// Import provenance
	RecordImport(ctx context.Context, rec model.ImportRecord) error
	ListImports(ctx context.Context, limit int) ([]model.ImportRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the Store backend selected by cfg.Driver and runs
// migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
