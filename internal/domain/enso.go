package domain

import (
	"fmt"
	"strings"
	"time"
)

// PhaseThresholds holds the ONI anomaly cutoffs for phase derivation.
// Canonical NOAA values are +0.5 / -0.5.
type PhaseThresholds struct {
	Warm float64
	Cold float64
}

// DefaultThresholds returns the canonical ±0.5 ONI cutoffs.
func DefaultThresholds() PhaseThresholds {
	return PhaseThresholds{Warm: 0.5, Cold: -0.5}
}

// DerivePhase classifies an anomaly index against the thresholds.
func DerivePhase(index float64, t PhaseThresholds) Phase {
	switch {
	case index >= t.Warm:
		return PhaseWarm
	case index <= t.Cold:
		return PhaseCold
	default:
		return PhaseNeutral
	}
}

// monthAbbrev is the fixed 12-entry translation table for Spanish three-letter
// month abbreviations as they appear in ENSO source files.
var monthAbbrev = map[string]time.Month{
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December,
}

// monthAbbrevEN accepts English abbreviations for the entries that differ
// from the Spanish table, for source variants exported with English locales.
var monthAbbrevEN = map[string]time.Month{
	"jan": time.January,
	"apr": time.April,
	"aug": time.August,
	"dec": time.December,
}

// ParseMonth resolves a month cell: a three-letter Spanish (or English)
// abbreviation, a full month number ("1".."12"), or a full Spanish name
// truncated to its first three letters ("enero" → ene).
func ParseMonth(s string) (time.Month, error) {
	s = strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
	if s == "" {
		return 0, fmt.Errorf("empty month")
	}

	if isDigits(s) {
		n := 0
		for _, r := range s {
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 12 {
			return time.Month(n), nil
		}
		return 0, fmt.Errorf("month out of range: %q", s)
	}

	if len(s) > 3 {
		s = s[:3]
	}
	if m, ok := monthAbbrev[s]; ok {
		return m, nil
	}
	if m, ok := monthAbbrevEN[s]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unrecognized month: %q", s)
}

// phaseLabels maps source phase spellings onto the canonical three values.
// Keys are diacritic-stripped and lowercased before lookup.
var phaseLabels = map[string]Phase{
	"nino":     PhaseWarm,
	"el nino":  PhaseWarm,
	"warm":     PhaseWarm,
	"calido":   PhaseWarm,
	"nina":     PhaseCold,
	"la nina":  PhaseCold,
	"cold":     PhaseCold,
	"frio":     PhaseCold,
	"neutral":  PhaseNeutral,
	"neutro":   PhaseNeutral,
	"normal":   PhaseNeutral,
	"sin dato": "",
}

// ParsePhaseLabel maps a source-supplied phase label onto the canonical
// Phase. Returns ok=false for labels the table does not cover.
func ParsePhaseLabel(s string) (Phase, bool) {
	key := strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
	key = strings.Join(strings.Fields(key), " ")
	p, ok := phaseLabels[key]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// noDataSentinels are the literal tokens sources use for a missing reading.
var noDataSentinels = map[string]bool{
	"":      true,
	"n.d":   true,
	"n.d.":  true,
	"nd":    true,
	"s/d":   true,
	"na":    true,
	"n/a":   true,
	"null":  true,
	"-":     true,
	"--":    true,
	"-999":  true,
	"-99.9": true,
}

// ParseMeasurement converts a precipitation cell to a value. Sentinels and
// unparseable cells become nil (no data), never zero. Comma decimal
// separators are accepted.
func ParseMeasurement(s string) *float64 {
	key := strings.ToLower(strings.TrimSpace(s))
	if noDataSentinels[key] {
		return nil
	}
	v, err := ParseDecimal(s)
	if err != nil {
		return nil
	}
	return &v
}
