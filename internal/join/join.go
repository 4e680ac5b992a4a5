// Package join links precipitation observations to station metadata and to
// monthly ENSO classification, producing analysis-ready rows.
package join

import (
	"time"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// Stats carries the observable drop/miss counts of a session's joins.
// Dropped rows are never silent; diagnostics surface these numbers.
type Stats struct {
	Matched           int `json:"matched"`
	DroppedNoStation  int `json:"dropped_no_station"`
	WithoutEnso       int `json:"without_enso"`
	GeometryUnmatched int `json:"geometry_unmatched"`
}

// StationJoin left-joins observations to station metadata on the normalized
// station identifier. Rows whose station has no registry entry are dropped,
// not nulled: they cannot be mapped or attributed to a municipality. The
// dropped count is returned for diagnostics.
func StationJoin(obs []domain.PrecipitationObservation, stations []domain.StationRecord) ([]domain.AnalysisRow, int) {
	byID := make(map[string]domain.StationRecord, len(stations))
	for _, st := range stations {
		byID[domain.NormalizeStationID(st.ID)] = st
	}

	dropped := 0
	rows := make([]domain.AnalysisRow, 0, len(obs))
	for _, o := range obs {
		st, ok := byID[domain.NormalizeStationID(o.StationID)]
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, domain.AnalysisRow{
			StationID:    st.ID,
			StationName:  st.Name,
			Municipality: st.Municipality,
			Department:   st.Department,
			Longitude:    st.Longitude,
			Latitude:     st.Latitude,
			Year:         o.Year,
			Month:        o.Month,
			ValueMM:      o.ValueMM,
		})
	}
	return rows, dropped
}

type yearMonth struct {
	year  int
	month time.Month
}

// ClimateJoin attaches the month's ENSO classification to each row by
// (year, month). Rows without coverage keep empty phase and nil index; they
// stay in the output for pure time-series use and are excluded from
// ENSO-based statistics. The uncovered count is returned.
func ClimateJoin(rows []domain.AnalysisRow, enso []domain.EnsoMonth) ([]domain.AnalysisRow, int) {
	byMonth := make(map[yearMonth]domain.EnsoMonth, len(enso))
	for _, e := range enso {
		byMonth[yearMonth{e.Year, e.Month}] = e
	}

	uncovered := 0
	out := make([]domain.AnalysisRow, len(rows))
	for i, r := range rows {
		out[i] = r
		e, ok := byMonth[yearMonth{r.Year, r.Month}]
		if !ok {
			uncovered++
			continue
		}
		index := e.AnomalyIndex
		out[i].AnomalyIndex = &index
		out[i].Phase = e.Phase
	}
	return out, uncovered
}
