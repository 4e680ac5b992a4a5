// Package interp estimates a precipitation surface on a regular lon/lat
// grid from scattered gauge samples. Estimation is an ordered two-strategy
// policy: ordinary kriging first, inverse-distance weighting as fallback,
// the first strategy to succeed short-circuiting the rest.
package interp

import (
	"errors"
	"fmt"
)

// Sample is one gauge value at a geographic position (EPSG:4326 degrees).
type Sample struct {
	Lon   float64
	Lat   float64
	Value float64
}

// GridSpec describes the requested output grid.
type GridSpec struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
	NX, NY         int
}

// Valid reports whether the spec describes a non-degenerate grid.
func (g GridSpec) Valid() error {
	if g.NX < 2 || g.NY < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", g.NX, g.NY)
	}
	if g.MaxLon <= g.MinLon || g.MaxLat <= g.MinLat {
		return errors.New("grid bounds are empty")
	}
	return nil
}

// CellLon returns the longitude of column i.
func (g GridSpec) CellLon(i int) float64 {
	return g.MinLon + (g.MaxLon-g.MinLon)*float64(i)/float64(g.NX-1)
}

// CellLat returns the latitude of row j.
func (g GridSpec) CellLat(j int) float64 {
	return g.MinLat + (g.MaxLat-g.MinLat)*float64(j)/float64(g.NY-1)
}

// Grid is an estimated surface: Values[j][i] is the cell at (CellLon(i),
// CellLat(j)).
type Grid struct {
	Spec   GridSpec    `json:"spec"`
	Method string      `json:"method"`
	Values [][]float64 `json:"values"`
}

// Interpolator is one estimation strategy.
type Interpolator interface {
	Name() string
	Interpolate(samples []Sample, spec GridSpec) (*Grid, error)
}

// Surface runs the strategies in order and returns the first successful
// grid. All failures are aggregated into one error so the caller sees why
// every strategy was rejected, not just the last.
func Surface(samples []Sample, spec GridSpec, strategies ...Interpolator) (*Grid, error) {
	if err := spec.Valid(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		strategies = []Interpolator{NewKriging(), NewIDW()}
	}

	var failures []error
	for _, s := range strategies {
		grid, err := s.Interpolate(samples, spec)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		grid.Method = s.Name()
		return grid, nil
	}
	return nil, fmt.Errorf("all interpolation strategies failed: %w", errors.Join(failures...))
}

func newValues(spec GridSpec) [][]float64 {
	values := make([][]float64, spec.NY)
	for j := range values {
		values[j] = make([]float64, spec.NX)
	}
	return values
}
