package ingest

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/model"
)

// ParseSHP reads crime observations from a point shapefile. The crime
// count comes from the named DBF attribute; records that are not points
// or carry an unparsable attribute value are skipped.
func ParseSHP(path, crimeField, source string) ([]model.Observation, int, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: open shapefile")
	}
	defer reader.Close() //nolint:errcheck

	fieldIdx := fieldIndex(reader, crimeField)
	if fieldIdx < 0 {
		return nil, 0, eris.Errorf("ingest: attribute %q not found in shapefile", crimeField)
	}

	var (
		obs     []model.Observation
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		crimes, ok := fieldFloat([]string{reader.Attribute(fieldIdx)}, 0)
		if !ok {
			skipped++
			continue
		}

		obs = append(obs, model.Observation{
			Lat:    point.Y,
			Lon:    point.X,
			Crimes: crimes,
			Source: source,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "ingest: read shapefile")
	}

	zap.L().Debug("ingest: parsed shapefile",
		zap.String("path", path),
		zap.Int("points", len(obs)),
		zap.Int("skipped", skipped),
	)
	return obs, skipped, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
