package interp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Kriging is ordinary kriging under an exponential variogram. The weight
// system (variogram matrix plus a Lagrange row for the unbiasedness
// constraint) is factored once per surface and back-substituted per cell.
type Kriging struct {
	// Range is the variogram range in degrees; 0 means derive it from the
	// sample extent.
	Range float64
	// Nugget and Sill shape the exponential variogram
	// γ(h) = Nugget + Sill·(1 − exp(−3h/Range)).
	Nugget float64
	Sill   float64
}

// NewKriging returns a Kriging with the variogram fitted per call: unit sill
// and a range derived from the sample bounding box.
func NewKriging() *Kriging {
	return &Kriging{Sill: 1.0}
}

func (k *Kriging) Name() string { return "ordinary-kriging" }

// minKrigingSamples is the smallest system worth solving; below it the
// Lagrange system is trivially degenerate and IDW handles it better.
const minKrigingSamples = 3

func (k *Kriging) Interpolate(samples []Sample, spec GridSpec) (*Grid, error) {
	if len(samples) < minKrigingSamples {
		return nil, errors.New("too few samples for a variogram")
	}

	rng := k.Range
	if rng == 0 {
		rng = deriveRange(samples)
	}
	if rng == 0 {
		return nil, errors.New("samples are co-located, variogram range is zero")
	}

	n := len(samples)
	a := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h := distance(samples[i].Lon, samples[i].Lat, samples[j].Lon, samples[j].Lat)
			a.Set(i, j, k.variogram(h, rng))
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
	}
	a.Set(n, n, 0)

	var lu mat.LU
	lu.Factorize(a)
	if lu.Cond() > 1e12 {
		return nil, errors.New("kriging system is singular or ill-conditioned")
	}

	values := newValues(spec)
	b := mat.NewVecDense(n+1, nil)
	var w mat.VecDense
	for j := 0; j < spec.NY; j++ {
		lat := spec.CellLat(j)
		for i := 0; i < spec.NX; i++ {
			lon := spec.CellLon(i)
			for s := 0; s < n; s++ {
				h := distance(lon, lat, samples[s].Lon, samples[s].Lat)
				b.SetVec(s, k.variogram(h, rng))
			}
			b.SetVec(n, 1)

			if err := lu.SolveVecTo(&w, false, b); err != nil {
				return nil, err
			}

			v := 0.0
			for s := 0; s < n; s++ {
				v += w.AtVec(s) * samples[s].Value
			}
			values[j][i] = v
		}
	}

	return &Grid{Spec: spec, Values: values}, nil
}

func (k *Kriging) variogram(h, rng float64) float64 {
	if h == 0 {
		return 0
	}
	return k.Nugget + k.Sill*(1-math.Exp(-3*h/rng))
}

// deriveRange uses half the sample bounding-box diagonal, a workable default
// when no variogram fit is available.
func deriveRange(samples []Sample) float64 {
	minLon, minLat := samples[0].Lon, samples[0].Lat
	maxLon, maxLat := minLon, minLat
	for _, s := range samples[1:] {
		minLon = math.Min(minLon, s.Lon)
		maxLon = math.Max(maxLon, s.Lon)
		minLat = math.Min(minLat, s.Lat)
		maxLat = math.Max(maxLat, s.Lat)
	}
	return distance(minLon, minLat, maxLon, maxLat) / 2
}

func distance(lon1, lat1, lon2, lat2 float64) float64 {
	return math.Hypot(lon2-lon1, lat2-lat1)
}
