package scorer

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/model"
)

type predictorFunc func(coords []model.Coordinate) ([]float64, error)

func (f predictorFunc) Predict(coords []model.Coordinate) ([]float64, error) {
	return f(coords)
}

// latPredictor predicts each point's latitude as its intensity, which lets
// tests pick prediction vectors through route construction.
var latPredictor = predictorFunc(func(coords []model.Coordinate) ([]float64, error) {
	preds := make([]float64, len(coords))
	for i, c := range coords {
		preds[i] = c.Lat
	}
	return preds, nil
})

func routeWithIntensities(vals ...float64) model.Route {
	route := make(model.Route, len(vals))
	for i, v := range vals {
		route[i] = model.Coordinate{Lat: v, Lon: 0}
	}
	return route
}

func TestScoreRoutes_ConcreteScenario(t *testing.T) {
	// Predictions [1,1,1,1,10]: only the 10 clears the 85th percentile,
	// penalized vector is [1,1,1,1,16], mean 4.0.
	rs := NewRouteScorer(latPredictor, 4)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(1, 1, 1, 1, 10),
	})
	require.Len(t, scores, 1)
	assert.InDelta(t, 4.0, float64(scores[0]), 1e-9)
}

func TestScoreRoutes_SinglePointAlwaysPenalized(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 1)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(5),
	})
	require.Len(t, scores, 1)
	assert.InDelta(t, 5*PenaltyFactor, float64(scores[0]), 1e-9)
}

func TestScoreRoutes_ConstantVector(t *testing.T) {
	// Every point of a constant vector sits at its own percentile, so the
	// amplification branch fires for all of them.
	rs := NewRouteScorer(latPredictor, 2)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(3, 3, 3, 3),
	})
	require.Len(t, scores, 1)
	assert.InDelta(t, 3*PenaltyFactor, float64(scores[0]), 1e-9)
}

func TestScoreRoutes_OrderIndependentWithinRoute(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 2)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(1, 9, 2, 8, 3),
		routeWithIntensities(8, 3, 9, 1, 2),
	})
	require.Len(t, scores, 2)
	assert.Equal(t, scores[0], scores[1])
}

func TestScoreRoutes_LengthAndOrderPreserved(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 8)
	routes := []model.Route{
		routeWithIntensities(1),
		routeWithIntensities(2),
		routeWithIntensities(3),
		routeWithIntensities(4),
		routeWithIntensities(5),
	}
	scores := rs.ScoreRoutes(context.Background(), routes)
	require.Len(t, scores, len(routes))
	for i, want := range []float64{1, 2, 3, 4, 5} {
		assert.InDelta(t, want*PenaltyFactor, float64(scores[i]), 1e-9, "route %d", i)
	}
}

func TestScoreRoutes_InvalidRouteSentinel(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 2)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(2, 2),
		nil, // empty
		{{Lat: math.NaN(), Lon: 0}},
	})
	require.Len(t, scores, 3)
	assert.False(t, scores[0].IsUnsafe())
	assert.True(t, scores[1].IsUnsafe())
	assert.True(t, scores[2].IsUnsafe())
}

func TestScoreRoutes_PredictorErrorSentinel(t *testing.T) {
	failing := predictorFunc(func(coords []model.Coordinate) ([]float64, error) {
		if len(coords) == 1 {
			return nil, eris.New("model exploded")
		}
		preds := make([]float64, len(coords))
		return preds, nil
	})
	rs := NewRouteScorer(failing, 2)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(1),
		routeWithIntensities(1, 2),
	})
	require.Len(t, scores, 2)
	assert.True(t, scores[0].IsUnsafe())
	assert.False(t, scores[1].IsUnsafe())
}

func TestScoreRoutes_PredictorLengthMismatchSentinel(t *testing.T) {
	short := predictorFunc(func(coords []model.Coordinate) ([]float64, error) {
		return []float64{1}, nil
	})
	rs := NewRouteScorer(short, 1)
	scores := rs.ScoreRoutes(context.Background(), []model.Route{
		routeWithIntensities(1, 2, 3),
	})
	require.Len(t, scores, 1)
	assert.True(t, scores[0].IsUnsafe())
}

func TestScoreBatch_MalformedRoutesDoNotAffectSiblings(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 4)

	raws := []json.RawMessage{
		json.RawMessage(`[[2,0],[2,0]]`),       // valid
		json.RawMessage(`[]`),                  // empty
		json.RawMessage(`[[1,2,3]]`),           // 3D point
		json.RawMessage(`[["a",2]]`),           // non-numeric
		json.RawMessage(`[[1,2],[3]]`),         // ragged
		json.RawMessage(`{"not":"a route"}`),   // wrong shape entirely
	}
	scores := rs.ScoreBatch(context.Background(), raws)
	require.Len(t, scores, len(raws))

	assert.InDelta(t, 2*PenaltyFactor, float64(scores[0]), 1e-9)
	for i := 1; i < len(scores); i++ {
		assert.True(t, scores[i].IsUnsafe(), "raw %d", i)
	}
}

func TestScoreBatch_Empty(t *testing.T) {
	rs := NewRouteScorer(latPredictor, 4)
	scores := rs.ScoreBatch(context.Background(), nil)
	assert.Empty(t, scores)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		pct    float64
		want   float64
	}{
		{"single value", []float64{7}, 85, 7},
		{"constant", []float64{3, 3, 3}, 85, 3},
		{"median", []float64{1, 2, 3, 4, 5}, 50, 3},
		{"interpolated", []float64{1, 1, 1, 1, 10}, 85, 4.6},
		{"unsorted input", []float64{10, 1, 1, 1, 1}, 85, 4.6},
		{"p0 is min", []float64{4, 2, 9}, 0, 2},
		{"p100 is max", []float64{4, 2, 9}, 100, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.values, tt.pct), 1e-9)
		})
	}
}

func TestPercentile_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 85)))
}
