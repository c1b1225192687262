package ingest

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestSHP(t *testing.T, points []shp.Point, crimes []float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crime.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.FloatField("TOTALCRIME", 16, 4)})
	for i := range points {
		w.Write(&points[i])
		require.NoError(t, w.WriteAttribute(i, 0, crimes[i]))
	}
	w.Close()
	return path
}

func TestParseSHP(t *testing.T) {
	path := writeTestSHP(t,
		[]shp.Point{{X: -87.63, Y: 41.88}, {X: -87.61, Y: 41.90}},
		[]float64{12, 4},
	)

	obs, skipped, err := ParseSHP(path, "TOTALCRIME", "crime.shp")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, obs, 2)
	assert.Equal(t, 41.88, obs[0].Lat)
	assert.Equal(t, -87.63, obs[0].Lon)
	assert.Equal(t, 12.0, obs[0].Crimes)
	assert.Equal(t, "crime.shp", obs[0].Source)
}

func TestParseSHP_FieldLookupIsCaseInsensitive(t *testing.T) {
	path := writeTestSHP(t, []shp.Point{{X: 1, Y: 2}}, []float64{7})

	obs, _, err := ParseSHP(path, "totalcrime", "s")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 7.0, obs[0].Crimes)
}

func TestParseSHP_UnknownField(t *testing.T) {
	path := writeTestSHP(t, []shp.Point{{X: 1, Y: 2}}, []float64{7})

	_, _, err := ParseSHP(path, "NOPE", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestParseSHP_MissingFile(t *testing.T) {
	_, _, err := ParseSHP(filepath.Join(t.TempDir(), "nope.shp"), "TOTALCRIME", "s")
	require.Error(t, err)
}
