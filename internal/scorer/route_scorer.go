// Package scorer reduces per-point crime intensity predictions into a single
// comparable risk score per route. Lower is safer.
package scorer

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/saferoute/internal/model"
)

// Tunable policy constants. A plain average lets one dangerous block get
// diluted by many safe blocks on a long route; amplifying the top tail
// before averaging makes short high-crime segments materially worsen the
// score without letting the single worst point dominate.
const (
	// PenaltyPercentile is the percentile above which predictions are
	// amplified before averaging.
	PenaltyPercentile = 85.0

	// PenaltyFactor is the multiplier applied to predictions at or above
	// the percentile threshold.
	PenaltyFactor = 1.6
)

// Predictor exposes batched point prediction from a fitted risk model.
// Implementations must be deterministic, total over finite coordinates,
// and safe for concurrent use.
type Predictor interface {
	Predict(coords []model.Coordinate) ([]float64, error)
}

// RouteScorer scores batches of candidate routes against a shared,
// read-only risk model.
type RouteScorer struct {
	predictor     Predictor
	maxConcurrent int
}

// NewRouteScorer creates a RouteScorer. maxConcurrent bounds how many
// routes of one batch are scored in parallel; values < 1 mean sequential.
func NewRouteScorer(p Predictor, maxConcurrent int) *RouteScorer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &RouteScorer{predictor: p, maxConcurrent: maxConcurrent}
}

// ScoreRoutes scores a batch of already-decoded routes. The result has the
// same length and order as the input. A route that fails validation or
// prediction is scored as the unsafe sentinel and logged; it never aborts
// its siblings.
func (rs *RouteScorer) ScoreRoutes(ctx context.Context, routes []model.Route) []model.Score {
	scores := make([]model.Score, len(routes))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(rs.maxConcurrent)
	for i, route := range routes {
		g.Go(func() error {
			scores[i] = rs.scoreOrSentinel(i, func() (model.Score, error) {
				return rs.scoreRoute(route)
			})
			return nil
		})
	}
	_ = g.Wait()
	return scores
}

// ScoreBatch scores a batch of wire-form routes, each an array of
// [lat, lon] pairs. Malformed routes (wrong arity, non-numeric, empty,
// ragged) score as the unsafe sentinel; length and order are preserved.
func (rs *RouteScorer) ScoreBatch(ctx context.Context, raws []json.RawMessage) []model.Score {
	scores := make([]model.Score, len(raws))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(rs.maxConcurrent)
	for i, raw := range raws {
		g.Go(func() error {
			scores[i] = rs.scoreOrSentinel(i, func() (model.Score, error) {
				route, err := model.ParseRoute(raw)
				if err != nil {
					return 0, err
				}
				return rs.scoreRoute(route)
			})
			return nil
		})
	}
	_ = g.Wait()
	return scores
}

// scoreOrSentinel converts any per-route failure into the unsafe sentinel
// plus a diagnostic log line. Failures are recovered here, at single-route
// granularity, and never escalate to the batch.
func (rs *RouteScorer) scoreOrSentinel(idx int, score func() (model.Score, error)) model.Score {
	s, err := score()
	if err != nil {
		zap.L().Warn("scorer: route scored as unsafe",
			zap.Int("route_index", idx),
			zap.Error(err),
		)
		return model.Unsafe()
	}
	return s
}

// scoreRoute runs the per-route algorithm: validate, predict once for the
// whole route, amplify the top tail, reduce by arithmetic mean.
func (rs *RouteScorer) scoreRoute(route model.Route) (model.Score, error) {
	if err := route.Validate(); err != nil {
		return 0, err
	}

	preds, err := rs.predictor.Predict(route)
	if err != nil {
		return 0, eris.Wrap(err, "scorer: predict route")
	}
	if len(preds) != len(route) {
		return 0, eris.Errorf("scorer: predictor returned %d values for %d points", len(preds), len(route))
	}

	// A single-point route's value equals its own percentile, so the
	// v >= threshold branch always fires for it. That is a consequence of
	// the percentile definition and is intentional.
	threshold := Percentile(preds, PenaltyPercentile)
	var sum float64
	for _, v := range preds {
		if v >= threshold {
			v *= PenaltyFactor
		}
		sum += v
	}
	return model.Score(sum / float64(len(preds))), nil
}

// Percentile computes the pct-th percentile of values using linear
// interpolation between closest ranks: on the sorted copy, the rank is
// h = (n-1) * pct/100, interpolated between floor(h) and ceil(h). Boundary
// ties matter to the amplification step, so the method is fixed here.
func Percentile(values []float64, pct float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	switch len(sorted) {
	case 0:
		return math.NaN()
	case 1:
		return sorted[0]
	}

	h := float64(len(sorted)-1) * pct / 100
	lo := int(h)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
