package ingest

import (
	"encoding/json"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/model"
)

// ReadRoutesGeoJSON decodes candidate routes from a GeoJSON
// FeatureCollection. LineString features become one route each;
// MultiLineString features contribute one route per line. GeoJSON
// positions are [lon, lat] and are swapped into Coordinate order.
func ReadRoutesGeoJSON(data []byte) ([]model.Route, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode geojson")
	}

	var routes []model.Route
	for i, feat := range fc.Features {
		switch g := feat.Geometry.(type) {
		case *geom.LineString:
			routes = append(routes, routeFromCoords(g.Coords()))
		case *geom.MultiLineString:
			for _, line := range g.Coords() {
				routes = append(routes, routeFromCoords(line))
			}
		default:
			return nil, eris.Errorf("ingest: feature %d has unsupported geometry %T", i, feat.Geometry)
		}
	}
	if len(routes) == 0 {
		return nil, eris.New("ingest: geojson contains no routes")
	}
	return routes, nil
}

func routeFromCoords(coords []geom.Coord) model.Route {
	route := make(model.Route, len(coords))
	for i, c := range coords {
		route[i] = model.Coordinate{Lat: c.Y(), Lon: c.X()}
	}
	return route
}

// ReadRouteBatchJSON decodes the wire-form route batch document,
// {"routes": [[[lat,lon],...], ...]}, leaving each route raw so that
// per-route malformation is scored as unsafe instead of failing the file.
func ReadRouteBatchJSON(data []byte) ([]json.RawMessage, error) {
	var doc struct {
		Routes []json.RawMessage `json:"routes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode route batch")
	}
	if doc.Routes == nil {
		return nil, eris.New("ingest: missing routes list")
	}
	return doc.Routes, nil
}
