package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrigenNacionalNaturalOrigin(t *testing.T) {
	// At the natural origin the projection yields exactly the false offsets.
	e, n := origenNacional.Forward(-73.0, 4.0)
	assert.InDelta(t, 5000000.0, e, 1e-4)
	assert.InDelta(t, 2000000.0, n, 1e-4)

	lon, lat := origenNacional.Inverse(5000000.0, 2000000.0)
	assert.InDelta(t, -73.0, lon, 1e-9)
	assert.InDelta(t, 4.0, lat, 1e-9)
}

func TestOrigenNacionalRoundTrip(t *testing.T) {
	points := []struct {
		name     string
		lon, lat float64
	}{
		{"bogota", -74.08, 4.61},
		{"medellin", -75.59, 6.25},
		{"leticia", -69.94, -4.21},
		{"riohacha", -72.91, 11.54},
		{"pasto", -77.28, 1.21},
	}

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			e, n := origenNacional.Forward(p.lon, p.lat)
			lon, lat := origenNacional.Inverse(e, n)
			assert.InDelta(t, p.lon, lon, 1e-7)
			assert.InDelta(t, p.lat, lat, 1e-7)
		})
	}
}

func TestOrigenNacionalEastingsIncreaseEastward(t *testing.T) {
	e1, _ := origenNacional.Forward(-75.0, 6.0)
	e2, _ := origenNacional.Forward(-74.0, 6.0)
	assert.Less(t, e1, e2)

	_, n1 := origenNacional.Forward(-74.0, 5.0)
	_, n2 := origenNacional.Forward(-74.0, 6.0)
	assert.Less(t, n1, n2)
}
