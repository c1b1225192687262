package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/model"
)

func TestReadRoutesGeoJSON_LineString(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"name": "route A"},
				"geometry": {
					"type": "LineString",
					"coordinates": [[-87.63, 41.88], [-87.62, 41.89]]
				}
			}
		]
	}`)

	routes, err := ReadRoutesGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	// GeoJSON positions are [lon, lat].
	assert.Equal(t, model.Route{
		{Lat: 41.88, Lon: -87.63},
		{Lat: 41.89, Lon: -87.62},
	}, routes[0])
}

func TestReadRoutesGeoJSON_MultiLineString(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {},
				"geometry": {
					"type": "MultiLineString",
					"coordinates": [
						[[0, 1], [2, 3]],
						[[4, 5], [6, 7], [8, 9]]
					]
				}
			}
		]
	}`)

	routes, err := ReadRoutesGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Len(t, routes[0], 2)
	assert.Len(t, routes[1], 3)
	assert.Equal(t, model.Coordinate{Lat: 1, Lon: 0}, routes[0][0])
}

func TestReadRoutesGeoJSON_UnsupportedGeometry(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {},
				"geometry": {"type": "Point", "coordinates": [0, 1]}
			}
		]
	}`)

	_, err := ReadRoutesGeoJSON(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported geometry")
}

func TestReadRoutesGeoJSON_Empty(t *testing.T) {
	_, err := ReadRoutesGeoJSON([]byte(`{"type": "FeatureCollection", "features": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no routes")
}

func TestReadRoutesGeoJSON_Malformed(t *testing.T) {
	_, err := ReadRoutesGeoJSON([]byte(`{]`))
	require.Error(t, err)
}

func TestReadRouteBatchJSON(t *testing.T) {
	raws, err := ReadRouteBatchJSON([]byte(`{"routes": [[[41.88,-87.63],[41.89,-87.62]], []]}`))
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.JSONEq(t, `[[41.88,-87.63],[41.89,-87.62]]`, string(raws[0]))
	assert.JSONEq(t, `[]`, string(raws[1]))
}

func TestReadRouteBatchJSON_MissingRoutes(t *testing.T) {
	_, err := ReadRouteBatchJSON([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing routes")

	_, err = ReadRouteBatchJSON([]byte(`{"routes": "nope"}`))
	require.Error(t, err)
}
