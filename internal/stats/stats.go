// Package stats computes the session's summary statistics: mean
// precipitation grouped by ENSO phase and the Pearson correlation between
// ONI anomaly and precipitation.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// PhaseMean is the arithmetic mean precipitation of one ENSO phase group.
type PhaseMean struct {
	Phase  domain.Phase `json:"phase"`
	MeanMM float64      `json:"mean_mm"`
	Count  int          `json:"count"`
}

// phaseOrder fixes output ordering for deterministic rendering.
var phaseOrder = []domain.Phase{domain.PhaseWarm, domain.PhaseNeutral, domain.PhaseCold}

// MeanByPhase groups rows by ENSO phase and averages precipitation. Null
// values and rows without ENSO coverage are skipped; phases with zero
// observations are absent from the result, never emitted with a zero or NaN
// mean.
func MeanByPhase(rows []domain.AnalysisRow) []PhaseMean {
	sums := map[domain.Phase]float64{}
	counts := map[domain.Phase]int{}
	for _, r := range rows {
		if !r.HasEnso() || r.ValueMM == nil {
			continue
		}
		sums[r.Phase] += *r.ValueMM
		counts[r.Phase]++
	}

	out := make([]PhaseMean, 0, len(counts))
	for _, p := range phaseOrder {
		if counts[p] == 0 {
			continue
		}
		out = append(out, PhaseMean{
			Phase:  p,
			MeanMM: sums[p] / float64(counts[p]),
			Count:  counts[p],
		})
	}
	return out
}

// CorrelationResult is a computed Pearson coefficient and its sample size.
type CorrelationResult struct {
	Coefficient float64 `json:"coefficient"`
	Pairs       int     `json:"pairs"`
}

// Correlate computes the Pearson correlation between ONI anomaly and
// precipitation. Rows missing either value are excluded pairwise, never
// imputed. Fewer than two surviving pairs is domain.ErrInsufficientData; a
// constant series on either side is domain.ErrZeroVariance ("undefined").
func Correlate(rows []domain.AnalysisRow) (CorrelationResult, error) {
	var xs, ys []float64
	for _, r := range rows {
		if r.AnomalyIndex == nil || r.ValueMM == nil {
			continue
		}
		xs = append(xs, *r.AnomalyIndex)
		ys = append(ys, *r.ValueMM)
	}

	if len(xs) < 2 {
		return CorrelationResult{Pairs: len(xs)}, domain.ErrInsufficientData
	}
	if isConstant(xs) || isConstant(ys) {
		return CorrelationResult{Pairs: len(xs)}, domain.ErrZeroVariance
	}

	return CorrelationResult{
		Coefficient: stat.Correlation(xs, ys, nil),
		Pairs:       len(xs),
	}, nil
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
