// Package model holds the domain types shared across ingestion, training,
// and route scoring.
package model

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
)

// Coordinate is a geographic point as (latitude, longitude).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Finite reports whether both components are finite real numbers.
// Out-of-range but finite values are allowed; the model is total over them.
func (c Coordinate) Finite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lon) && !math.IsInf(c.Lon, 0)
}

// Route is an ordered sequence of coordinates describing a path.
type Route []Coordinate

// Validate checks that the route has at least one point and that every
// point is finite.
func (r Route) Validate() error {
	if len(r) == 0 {
		return eris.New("model: empty route")
	}
	for i, c := range r {
		if !c.Finite() {
			return eris.Errorf("model: non-finite coordinate at index %d", i)
		}
	}
	return nil
}

// ParseRoute decodes one route from its wire form, an array of 2-element
// [lat, lon] numeric pairs. Wrong arity, non-numeric values, and empty
// routes are errors; callers decide whether an error is fatal or scores
// the route as unsafe.
func ParseRoute(raw []byte) (Route, error) {
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, eris.Wrap(err, "model: decode route")
	}
	if len(pairs) == 0 {
		return nil, eris.New("model: empty route")
	}
	route := make(Route, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, eris.Errorf("model: point %d has %d elements, want 2", i, len(p))
		}
		route[i] = Coordinate{Lat: p[0], Lon: p[1]}
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	return route, nil
}
