package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Route
		wantErr string
	}{
		{
			name: "two points",
			raw:  `[[41.88,-87.63],[41.89,-87.62]]`,
			want: Route{{Lat: 41.88, Lon: -87.63}, {Lat: 41.89, Lon: -87.62}},
		},
		{
			name: "single point",
			raw:  `[[1.5,2.5]]`,
			want: Route{{Lat: 1.5, Lon: 2.5}},
		},
		{
			name:    "empty",
			raw:     `[]`,
			wantErr: "empty route",
		},
		{
			name:    "three elements per point",
			raw:     `[[1,2,3]]`,
			wantErr: "3 elements",
		},
		{
			name:    "one element per point",
			raw:     `[[1]]`,
			wantErr: "1 elements",
		},
		{
			name:    "non-numeric",
			raw:     `[["a",2]]`,
			wantErr: "decode route",
		},
		{
			name:    "not an array",
			raw:     `{"lat":1}`,
			wantErr: "decode route",
		},
		{
			name:    "ragged",
			raw:     `[[1,2],[3]]`,
			wantErr: "1 elements",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute([]byte(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteValidate(t *testing.T) {
	assert.Error(t, Route{}.Validate())
	assert.Error(t, Route{{Lat: math.NaN(), Lon: 0}}.Validate())
	assert.Error(t, Route{{Lat: 0, Lon: math.Inf(1)}}.Validate())
	assert.NoError(t, Route{{Lat: 412.0, Lon: -999.0}}.Validate(), "out-of-range but finite passes through")
}
