package model

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Score is the aggregated risk value for one route. Lower is safer.
// Positive infinity is the sentinel for a route that failed validation or
// prediction and must be treated as maximally unsafe.
type Score float64

// Unsafe returns the sentinel score for an unscoreable route.
func Unsafe() Score {
	return Score(math.Inf(1))
}

// IsUnsafe reports whether the score is the unsafe sentinel.
func (s Score) IsUnsafe() bool {
	return math.IsInf(float64(s), 1)
}

// infinityToken is the wire representation of the unsafe sentinel. IEEE
// infinity is not representable as a JSON number, so the sentinel crosses
// the wire as a dedicated string token.
const infinityToken = `"Infinity"`

// MarshalJSON encodes finite scores as plain numbers and the unsafe
// sentinel as the "Infinity" token.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.IsUnsafe() {
		return []byte(infinityToken), nil
	}
	if math.IsNaN(float64(s)) || math.IsInf(float64(s), -1) {
		return nil, eris.Errorf("model: score %v is not encodable", float64(s))
	}
	return strconv.AppendFloat(nil, float64(s), 'g', -1, 64), nil
}

// UnmarshalJSON accepts either a JSON number or the "Infinity" token.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == infinityToken {
		*s = Unsafe()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrap(err, "model: decode score")
	}
	*s = Score(v)
	return nil
}
