package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Month
		wantErr  bool
	}{
		{"spanish abbreviation", "ene", time.January, false},
		{"spanish august", "ago", time.August, false},
		{"spanish december", "dic", time.December, false},
		{"uppercase", "MAR", time.March, false},
		{"full spanish name", "enero", time.January, false},
		{"english abbreviation", "jan", time.January, false},
		{"english december", "dec", time.December, false},
		{"shared abbreviation", "sep", time.September, false},
		{"numeric", "1", time.January, false},
		{"numeric twelve", "12", time.December, false},
		{"numeric out of range", "13", 0, true},
		{"unknown token", "xyz", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMonth(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestDerivePhase(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name     string
		index    float64
		expected Phase
	}{
		{"strong warm", 1.2, PhaseWarm},
		{"warm boundary", 0.5, PhaseWarm},
		{"neutral positive", 0.4, PhaseNeutral},
		{"neutral zero", 0, PhaseNeutral},
		{"neutral negative", -0.4, PhaseNeutral},
		{"cold boundary", -0.5, PhaseCold},
		{"strong cold", -1.8, PhaseCold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DerivePhase(tt.index, thresholds))
		})
	}
}

func TestParsePhaseLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Phase
		ok       bool
	}{
		{"spanish warm with accent", "Niño", PhaseWarm, true},
		{"spanish warm article", "El Niño", PhaseWarm, true},
		{"spanish cold", "La Niña", PhaseCold, true},
		{"english", "warm", PhaseWarm, true},
		{"neutral spanish", "Neutro", PhaseNeutral, true},
		{"unknown", "wet", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParsePhaseLabel(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestParseMeasurement(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		v := ParseMeasurement("120.5")
		require.NotNil(t, v)
		assert.InDelta(t, 120.5, *v, 1e-9)
	})

	t.Run("comma decimal", func(t *testing.T) {
		v := ParseMeasurement("85,3")
		require.NotNil(t, v)
		assert.InDelta(t, 85.3, *v, 1e-9)
	})

	t.Run("no-data sentinels map to nil not zero", func(t *testing.T) {
		for _, s := range []string{"n.d", "N.D", "n.d.", "nd", "s/d", "NA", "", "-", "-999"} {
			assert.Nil(t, ParseMeasurement(s), "sentinel %q", s)
		}
	})

	t.Run("garbage maps to nil", func(t *testing.T) {
		assert.Nil(t, ParseMeasurement("not a number"))
	})

	t.Run("zero is a real value", func(t *testing.T) {
		v := ParseMeasurement("0")
		require.NotNil(t, v)
		assert.Equal(t, 0.0, *v)
	})
}
