// Package risk fits and evaluates the spatial crime-intensity model: a
// distance-weighted k-nearest-neighbor regressor over standardized
// coordinates. A fitted Model is read-only and safe for concurrent use.
package risk

import (
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/model"
)

// DefaultNeighbors is the k used when fitting unless overridden.
const DefaultNeighbors = 8

// Scaler standardizes (lat, lon) pairs to zero mean and unit variance,
// per column. Zero-variance columns divide by 1 so they pass through.
type Scaler struct {
	Mean [2]float64 `json:"mean"`
	Std  [2]float64 `json:"std"`
}

// Transform maps a raw coordinate into standardized space.
func (s Scaler) Transform(lat, lon float64) (float64, float64) {
	return (lat - s.Mean[0]) / s.Std[0], (lon - s.Mean[1]) / s.Std[1]
}

// Model is a fitted crime-intensity regressor.
type Model struct {
	K         int          `json:"k"`
	Scaler    Scaler       `json:"scaler"`
	Points    [][2]float64 `json:"points"` // standardized training coordinates
	Targets   []float64    `json:"targets"`
	TrainedAt time.Time    `json:"trained_at"`
}

// Meta describes a fitted model without its training data.
type Meta struct {
	K         int       `json:"k"`
	Rows      int       `json:"rows"`
	TrainedAt time.Time `json:"trained_at"`
}

// Meta returns the model's metadata.
func (m *Model) Meta() Meta {
	return Meta{K: m.K, Rows: len(m.Points), TrainedAt: m.TrainedAt}
}

// Fit trains a model on the given observations. k values < 1 fall back to
// DefaultNeighbors; k is clamped to the training-set size.
func Fit(obs []model.Observation, k int) (*Model, error) {
	if len(obs) == 0 {
		return nil, eris.New("risk: no observations to fit")
	}
	if k < 1 {
		k = DefaultNeighbors
	}
	if k > len(obs) {
		k = len(obs)
	}

	var scaler Scaler
	for _, o := range obs {
		scaler.Mean[0] += o.Lat
		scaler.Mean[1] += o.Lon
	}
	n := float64(len(obs))
	scaler.Mean[0] /= n
	scaler.Mean[1] /= n
	for _, o := range obs {
		dLat := o.Lat - scaler.Mean[0]
		dLon := o.Lon - scaler.Mean[1]
		scaler.Std[0] += dLat * dLat
		scaler.Std[1] += dLon * dLon
	}
	for i := range scaler.Std {
		scaler.Std[i] = math.Sqrt(scaler.Std[i] / n)
		if scaler.Std[i] == 0 {
			scaler.Std[i] = 1
		}
	}

	m := &Model{
		K:         k,
		Scaler:    scaler,
		Points:    make([][2]float64, len(obs)),
		Targets:   make([]float64, len(obs)),
		TrainedAt: time.Now().UTC(),
	}
	for i, o := range obs {
		x, y := scaler.Transform(o.Lat, o.Lon)
		m.Points[i] = [2]float64{x, y}
		m.Targets[i] = o.Crimes
	}
	return m, nil
}

// Predict evaluates the model at each coordinate, returning one intensity
// per input in the same order. It is total over finite coordinates.
func (m *Model) Predict(coords []model.Coordinate) ([]float64, error) {
	if len(m.Points) == 0 {
		return nil, eris.New("risk: model has no training points")
	}
	preds := make([]float64, len(coords))
	for i, c := range coords {
		preds[i] = m.predictOne(c.Lat, c.Lon)
	}
	return preds, nil
}

type neighbor struct {
	dist2  float64
	target float64
}

// predictOne interpolates intensity at one point from its k nearest
// training points, weighted by inverse distance. An exact hit gets the
// mean of the zero-distance targets, matching inverse-distance weighting
// in the limit.
func (m *Model) predictOne(lat, lon float64) float64 {
	x, y := m.Scaler.Transform(lat, lon)

	k := m.K
	if k > len(m.Points) {
		k = len(m.Points)
	}
	best := make([]neighbor, 0, k)
	for i, p := range m.Points {
		dx := p[0] - x
		dy := p[1] - y
		d2 := dx*dx + dy*dy
		if len(best) == k && d2 >= best[k-1].dist2 {
			continue
		}
		// Insert into the sorted window, dropping the current worst.
		if len(best) < k {
			best = append(best, neighbor{})
		}
		j := len(best) - 1
		for j > 0 && best[j-1].dist2 > d2 {
			best[j] = best[j-1]
			j--
		}
		best[j] = neighbor{dist2: d2, target: m.Targets[i]}
	}

	var exactSum float64
	var exactN int
	for _, nb := range best {
		if nb.dist2 == 0 {
			exactSum += nb.target
			exactN++
		}
	}
	if exactN > 0 {
		return exactSum / float64(exactN)
	}

	var num, den float64
	for _, nb := range best {
		w := 1 / math.Sqrt(nb.dist2)
		num += w * nb.target
		den += w
	}
	return num / den
}
