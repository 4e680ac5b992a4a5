package interp

import (
	"errors"
	"math"
)

// IDW is inverse-distance weighting, the simple-grid fallback when kriging
// cannot produce a surface.
type IDW struct {
	Power float64
}

// NewIDW returns the conventional power-2 weighting.
func NewIDW() *IDW {
	return &IDW{Power: 2}
}

func (w *IDW) Name() string { return "inverse-distance" }

func (w *IDW) Interpolate(samples []Sample, spec GridSpec) (*Grid, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}

	power := w.Power
	if power <= 0 {
		power = 2
	}

	values := newValues(spec)
	for j := 0; j < spec.NY; j++ {
		lat := spec.CellLat(j)
		for i := 0; i < spec.NX; i++ {
			lon := spec.CellLon(i)
			values[j][i] = w.estimate(samples, lon, lat, power)
		}
	}
	return &Grid{Spec: spec, Values: values}, nil
}

func (w *IDW) estimate(samples []Sample, lon, lat, power float64) float64 {
	num, den := 0.0, 0.0
	for _, s := range samples {
		h := distance(lon, lat, s.Lon, s.Lat)
		if h == 0 {
			// Exact hit: the gauge value wins outright.
			return s.Value
		}
		wt := 1 / math.Pow(h, power)
		num += wt * s.Value
		den += wt
	}
	return num / den
}
