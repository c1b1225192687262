package model

import "time"

// Observation is one historical crime data point: where, and how much.
type Observation struct {
	ID     int64   `json:"id,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Crimes float64 `json:"crimes"`
	Source string  `json:"source,omitempty"`
}

// ImportRecord tracks one dataset load for provenance.
type ImportRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Format     string    `json:"format"`
	Rows       int       `json:"rows"`
	Skipped    int       `json:"skipped"`
	ImportedAt time.Time `json:"imported_at"`
}
