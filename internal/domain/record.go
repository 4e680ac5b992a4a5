package domain

import "time"

// StationRecord is one physical rain gauge from the station registry.
// Coordinates are in EPSG:4326 degrees. Immutable after parsing.
type StationRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Municipality string   `json:"municipality,omitempty"`
	Department   string   `json:"department,omitempty"`
	Longitude    float64  `json:"lon"`
	Latitude     float64  `json:"lat"`
	PercentData  *float64 `json:"percent_data,omitempty"`
}

// PrecipitationObservation is one (station, calendar month) measurement.
// ValueMM is nil when the source carried a no-data sentinel or an invalid
// reading; it is never coerced to zero.
type PrecipitationObservation struct {
	StationID string     `json:"station_id"`
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	ValueMM   *float64   `json:"value_mm"`
}

// Phase is the three-valued ENSO classification.
type Phase string

const (
	PhaseWarm    Phase = "warm"    // El Niño
	PhaseCold    Phase = "cold"    // La Niña
	PhaseNeutral Phase = "neutral"
)

// EnsoMonth is one (year, month) climate classification. Exactly one record
// exists per (year, month) in a parsed series.
type EnsoMonth struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	AnomalyIndex float64    `json:"anomaly_index"`
	Phase        Phase      `json:"phase"`
}

// StationGeometry is one record of the geometry source after reprojection,
// with scalar coordinates derived from the shape. StationID is empty until
// the record is linked to a registry station.
type StationGeometry struct {
	SourceName string  `json:"source_name"`
	StationID  string  `json:"station_id,omitempty"`
	Longitude  float64 `json:"lon"`
	Latitude   float64 `json:"lat"`
	SourceCRS  string  `json:"source_crs"`
}

// AnalysisRow is the joined output consumed by the statistics layer: one row
// per (station, year, month) with station metadata and, where ENSO coverage
// exists, the month's classification attached.
type AnalysisRow struct {
	StationID    string     `json:"station_id"`
	StationName  string     `json:"station_name"`
	Municipality string     `json:"municipality,omitempty"`
	Department   string     `json:"department,omitempty"`
	Longitude    float64    `json:"lon"`
	Latitude     float64    `json:"lat"`
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	ValueMM      *float64   `json:"value_mm"`
	AnomalyIndex *float64   `json:"anomaly_index,omitempty"`
	Phase        Phase      `json:"phase,omitempty"`
}

// HasEnso reports whether the climate join found coverage for this row's month.
func (r AnalysisRow) HasEnso() bool {
	return r.Phase != "" && r.AnomalyIndex != nil
}
