package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_InsertAndListObservations(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.InsertObservations(ctx, []model.Observation{
		{Lat: 41.88, Lon: -87.63, Crimes: 12, Source: "crime.csv"},
		{Lat: 41.89, Lon: -87.62, Crimes: 3, Source: "crime.csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	obs, err := st.ListObservations(ctx)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 41.88, obs[0].Lat)
	assert.Equal(t, -87.63, obs[0].Lon)
	assert.Equal(t, 12.0, obs[0].Crimes)
	assert.Equal(t, "crime.csv", obs[0].Source)
	assert.Equal(t, 3.0, obs[1].Crimes)
}

func TestSQLite_InsertObservations_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.InsertObservations(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSQLite_CountObservations(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = st.InsertObservations(ctx, []model.Observation{
		{Lat: 1, Lon: 2, Crimes: 3},
		{Lat: 4, Lon: 5, Crimes: 6},
		{Lat: 7, Lon: 8, Crimes: 9},
	})
	require.NoError(t, err)

	n, err = st.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLite_ImportProvenance(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := model.ImportRecord{
		ID:         uuid.New().String(),
		Source:     "crime.csv",
		Format:     "csv",
		Rows:       100,
		Skipped:    2,
		ImportedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := model.ImportRecord{
		ID:         uuid.New().String(),
		Source:     "districts.shp",
		Format:     "shp",
		Rows:       40,
		ImportedAt: time.Now().UTC(),
	}
	require.NoError(t, st.RecordImport(ctx, older))
	require.NoError(t, st.RecordImport(ctx, newer))

	recs, err := st.ListImports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, newer.ID, recs[0].ID, "most recent first")
	assert.Equal(t, older.ID, recs[1].ID)
	assert.Equal(t, 2, recs[1].Skipped)

	recs, err = st.ListImports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, newer.ID, recs[0].ID)
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	n, err := st.CountObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
