// Package ingest loads crime observation datasets from CSV, XLSX, and
// shapefile sources, local or remote, and decodes route geometry files.
package ingest

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/saferoute/internal/model"
)

// Column aliases accepted for the coordinate and target columns, matched
// case-insensitively against the header row.
var (
	latAliases    = []string{"lat", "latitude"}
	lonAliases    = []string{"long", "lon", "longitude"}
	targetAliases = []string{"totalcrime", "total_crime", "crimes"}

	// categoryColumns are summed into a total when no aggregate column
	// exists. The names, typos included, are the column headers as they
	// appear in the source datasets.
	categoryColumns = []string{
		"murder", "rape", "robbery", "theft",
		"assualt murders", "sexual harassement", "gangrape",
	}
)

// CSVOptions configures observation CSV parsing.
type CSVOptions struct {
	Charset string // source charset (e.g. "windows-1252"); empty means UTF-8
	Source  string // provenance label attached to each observation
}

// ParseCSV reads crime observations from r. Rows with missing or
// unparsable coordinates or target are skipped, not fatal; the count of
// skipped rows is returned alongside the observations.
func ParseCSV(r io.Reader, opts CSVOptions) ([]model.Observation, int, error) {
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "ingest: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: read csv header")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		obs     []model.Observation
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, eris.Wrap(err, "ingest: read csv row")
		}
		o, ok := cols.observation(record)
		if !ok {
			skipped++
			continue
		}
		o.Source = opts.Source
		obs = append(obs, o)
	}
	return obs, skipped, nil
}

// columnMap resolves which record indices hold coordinates and the crime
// target. When target is -1, the total is the sum of the category columns.
type columnMap struct {
	lat, lon, target int
	categories       []int
}

func mapColumns(header []string) (*columnMap, error) {
	cols := &columnMap{lat: -1, lon: -1, target: -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case cols.lat < 0 && contains(latAliases, name):
			cols.lat = i
		case cols.lon < 0 && contains(lonAliases, name):
			cols.lon = i
		case cols.target < 0 && contains(targetAliases, name):
			cols.target = i
		case contains(categoryColumns, name):
			cols.categories = append(cols.categories, i)
		}
	}
	if cols.lat < 0 || cols.lon < 0 {
		return nil, eris.Errorf("ingest: coordinate columns not found in header %v", header)
	}
	if cols.target < 0 && len(cols.categories) == 0 {
		return nil, eris.Errorf("ingest: no crime total or category columns found in header %v", header)
	}
	return cols, nil
}

// observation converts one record. ok is false when the row must be
// skipped (short record, blank or unparsable values).
func (c *columnMap) observation(record []string) (model.Observation, bool) {
	lat, ok := fieldFloat(record, c.lat)
	if !ok {
		return model.Observation{}, false
	}
	lon, ok := fieldFloat(record, c.lon)
	if !ok {
		return model.Observation{}, false
	}

	var crimes float64
	if c.target >= 0 {
		crimes, ok = fieldFloat(record, c.target)
		if !ok {
			return model.Observation{}, false
		}
	} else {
		for _, idx := range c.categories {
			v, ok := fieldFloat(record, idx)
			if !ok {
				return model.Observation{}, false
			}
			crimes += v
		}
	}
	return model.Observation{Lat: lat, Lon: lon, Crimes: crimes}, true
}

func fieldFloat(record []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
