// Command validate inspects a dataset before it is uploaded: it reports how
// every header resolves against the canonical schema, which required columns
// are missing, how much of the precipitation table is null, and how well the
// three sources cross-reference.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -stations estaciones.csv \
//	  -precip precipitacion.csv \
//	  -enso oni.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/loader"
	"github.com/hidromet/rainfall-enso-etl/internal/reshape"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	stationsPath := flag.String("stations", "", "station registry CSV")
	precipPath := flag.String("precip", "", "wide precipitation CSV")
	ensoPath := flag.String("enso", "", "monthly ENSO/ONI CSV")
	flag.Parse()

	if *stationsPath == "" || *precipPath == "" || *ensoPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*stationsPath, *precipPath, *ensoPath))
}

func run(stationsPath, precipPath, ensoPath string) int {
	fmt.Println("=== Dataset Validation ===")
	fmt.Println()

	stationIDs := map[string]bool{}
	precipIDs := map[string]bool{}

	phases := []*phase{
		validateStations(stationsPath, stationIDs),
		validatePrecipitation(precipPath, precipIDs),
		validateEnso(ensoPath),
		validateCrossReference(stationIDs, precipIDs),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Printf("      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadTable(p *phase, path string) ([]string, [][]string, bool) {
	f, err := os.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return nil, nil, false
	}
	defer f.Close()

	df, err := loader.ReadTable(path, f, loader.Options{})
	if err != nil {
		p.errorf("load: %v", err)
		return nil, nil, false
	}

	headers := df.Names()
	records := make([][]string, len(headers))
	for i, h := range headers {
		records[i] = df.Col(h).Records()
	}
	return headers, records, true
}

// reportResolution prints how each header resolved, flagging missing
// required canonical fields.
func reportResolution(p *phase, headers []string, required ...domain.CanonicalField) map[domain.CanonicalField]string {
	resolved := domain.ResolveColumns(headers)

	byHeader := map[string]domain.CanonicalField{}
	for field, header := range resolved {
		byHeader[header] = field
	}
	for _, h := range headers {
		if field, ok := byHeader[h]; ok {
			p.notef("%-28q -> %s", h, field)
		}
	}

	for _, field := range required {
		if _, ok := resolved[field]; !ok {
			p.errorf("missing required column: %s", field)
		}
	}
	return resolved
}

func validateStations(path string, ids map[string]bool) *phase {
	p := &phase{name: "Phase 1: Station Registry"}

	headers, records, ok := loadTable(p, path)
	if !ok {
		return p
	}
	resolved := reportResolution(p, headers,
		domain.FieldStationID, domain.FieldStationName,
		domain.FieldLongitude, domain.FieldLatitude,
	)
	if !p.passed() {
		return p
	}

	col := func(f domain.CanonicalField) []string {
		for i, h := range headers {
			if h == resolved[f] {
				return records[i]
			}
		}
		return nil
	}

	idCol := col(domain.FieldStationID)
	lonCol := col(domain.FieldLongitude)
	latCol := col(domain.FieldLatitude)

	badCoords := 0
	for i := range idCol {
		id := domain.NormalizeStationID(idCol[i])
		if id == "" {
			continue
		}
		if ids[id] {
			p.errorf("duplicate station id %s (row %d)", id, i+2)
			continue
		}
		ids[id] = true

		if _, err := domain.ParseDecimal(lonCol[i]); err != nil {
			badCoords++
			continue
		}
		if _, err := domain.ParseDecimal(latCol[i]); err != nil {
			badCoords++
		}
	}

	p.notef("%d stations, %d with unparseable coordinates", len(ids), badCoords)
	return p
}

func validatePrecipitation(path string, ids map[string]bool) *phase {
	p := &phase{name: "Phase 2: Precipitation Table"}

	f, err := os.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return p
	}
	defer f.Close()

	df, err := loader.ReadTable(path, f, loader.Options{})
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}

	obs, err := reshape.Melt(df)
	if err != nil {
		p.errorf("reshape: %v", err)
		return p
	}

	nulls := 0
	for _, o := range obs {
		ids[o.StationID] = true
		if o.ValueMM == nil {
			nulls++
		}
	}

	p.notef("%d station columns, %d observations, %d null (%.1f%%)",
		len(ids), len(obs), nulls, 100*float64(nulls)/float64(len(obs)))
	return p
}

func validateEnso(path string) *phase {
	p := &phase{name: "Phase 3: ENSO Series"}

	headers, records, ok := loadTable(p, path)
	if !ok {
		return p
	}
	resolved := reportResolution(p, headers,
		domain.FieldYear, domain.FieldMonth, domain.FieldAnomalyIndex,
	)
	if !p.passed() {
		return p
	}

	col := func(f domain.CanonicalField) []string {
		for i, h := range headers {
			if h == resolved[f] {
				return records[i]
			}
		}
		return nil
	}

	months := col(domain.FieldMonth)
	anomalies := col(domain.FieldAnomalyIndex)

	covered, gaps := 0, 0
	for i := range months {
		if _, err := domain.ParseMonth(months[i]); err != nil {
			p.errorf("row %d: %v", i+2, err)
			continue
		}
		if domain.ParseMeasurement(anomalies[i]) == nil {
			gaps++
			continue
		}
		covered++
	}

	p.notef("%d classified months, %d without anomaly", covered, gaps)
	return p
}

// validateCrossReference reports how the precipitation station columns map
// onto the registry: every unmatched column becomes dropped observations.
func validateCrossReference(stationIDs, precipIDs map[string]bool) *phase {
	p := &phase{name: "Phase 4: Cross-Reference (registry vs table)"}

	var unmatched []string
	matched := 0
	for id := range precipIDs {
		if stationIDs[id] {
			matched++
		} else {
			unmatched = append(unmatched, id)
		}
	}
	sort.Strings(unmatched)

	p.notef("%d of %d precipitation stations in registry", matched, len(precipIDs))
	for _, id := range unmatched {
		p.errorf("station column %s not in registry; its observations would be dropped", id)
	}
	return p
}
