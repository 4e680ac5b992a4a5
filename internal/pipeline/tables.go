package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/loader"
)

// columnReader pulls resolved canonical columns out of a DataFrame as raw
// string records; absent optional columns read as nil.
type columnReader struct {
	df       dataframe.DataFrame
	resolved map[domain.CanonicalField]string
}

func newColumnReader(df dataframe.DataFrame) columnReader {
	return columnReader{df: df, resolved: domain.ResolveColumns(df.Names())}
}

func (c columnReader) records(f domain.CanonicalField) []string {
	name, ok := c.resolved[f]
	if !ok {
		return nil
	}
	return c.df.Col(name).Records()
}

func (p *Pipeline) loadStations(in Input) ([]domain.StationRecord, error) {
	stations, err := cached(p, "stations", in, 0, p.parseStations)
	if err != nil {
		return nil, err
	}
	p.metrics.FilesLoaded.WithLabelValues("stations").Inc()
	return stations, nil
}

// parseStations reads the station registry. ID, name, and both coordinates
// are required columns; rows with a blank id or unparseable coordinates are
// skipped, not fatal, since registries routinely carry a few stub rows.
func (p *Pipeline) parseStations(in Input) ([]domain.StationRecord, error) {
	df, err := loader.ParseTable(in.Name, in.Content, loader.Options{})
	if err != nil {
		return nil, err
	}

	cols := newColumnReader(df)
	if err := domain.RequireColumns(in.Name, cols.resolved,
		domain.FieldStationID, domain.FieldStationName,
		domain.FieldLongitude, domain.FieldLatitude,
	); err != nil {
		return nil, err
	}

	ids := cols.records(domain.FieldStationID)
	names := cols.records(domain.FieldStationName)
	lons := cols.records(domain.FieldLongitude)
	lats := cols.records(domain.FieldLatitude)
	munis := cols.records(domain.FieldMunicipality)
	depts := cols.records(domain.FieldDepartment)
	pcts := cols.records(domain.FieldPercentData)

	seen := make(map[string]bool, len(ids))
	out := make([]domain.StationRecord, 0, len(ids))
	skipped := 0
	for i := range ids {
		id := domain.NormalizeStationID(ids[i])
		if id == "" {
			skipped++
			continue
		}
		if seen[id] {
			return nil, &domain.FileError{Name: in.Name, Err: fmt.Errorf("duplicate station id %s", id)}
		}
		seen[id] = true

		lon, lonErr := domain.ParseDecimal(lons[i])
		lat, latErr := domain.ParseDecimal(lats[i])
		if lonErr != nil || latErr != nil {
			skipped++
			continue
		}

		rec := domain.StationRecord{
			ID:        id,
			Name:      strings.TrimSpace(names[i]),
			Longitude: lon,
			Latitude:  lat,
		}
		if munis != nil {
			rec.Municipality = strings.TrimSpace(munis[i])
		}
		if depts != nil {
			rec.Department = strings.TrimSpace(depts[i])
		}
		if pcts != nil {
			if v, err := domain.ParseDecimal(pcts[i]); err == nil {
				rec.PercentData = &v
			}
		}
		out = append(out, rec)
	}

	if skipped > 0 {
		p.logger.Warn("station registry rows skipped", "file", in.Name, "count", skipped)
	}
	return out, nil
}

func (p *Pipeline) loadEnso(in Input) ([]domain.EnsoMonth, error) {
	enso, err := cached(p, "enso", in, p.opts.EnsoDelimiter, p.parseEnso)
	if err != nil {
		return nil, err
	}
	p.metrics.FilesLoaded.WithLabelValues("enso").Inc()
	return enso, nil
}

// parseEnso reads the monthly ENSO series. Year, month, and the anomaly
// index are required; the phase column is optional and, when absent or
// unrecognized, the phase is derived from the anomaly and the thresholds.
// Rows without a usable anomaly are skipped; a duplicate (year, month) key
// is malformed input.
func (p *Pipeline) parseEnso(in Input) ([]domain.EnsoMonth, error) {
	df, err := loader.ParseTable(in.Name, in.Content, loader.Options{Delimiter: p.opts.EnsoDelimiter})
	if err != nil {
		return nil, err
	}

	cols := newColumnReader(df)
	if err := domain.RequireColumns(in.Name, cols.resolved,
		domain.FieldYear, domain.FieldMonth, domain.FieldAnomalyIndex,
	); err != nil {
		return nil, err
	}

	years := cols.records(domain.FieldYear)
	months := cols.records(domain.FieldMonth)
	anomalies := cols.records(domain.FieldAnomalyIndex)
	phases := cols.records(domain.FieldPhase)

	type key struct {
		year  int
		month int
	}
	seen := make(map[key]bool, len(years))

	out := make([]domain.EnsoMonth, 0, len(years))
	skipped := 0
	for i := range years {
		year, err := strconv.Atoi(strings.TrimSpace(years[i]))
		if err != nil {
			return nil, &domain.FileError{Name: in.Name, Err: fmt.Errorf("row %d: unparseable year %q", i+1, years[i])}
		}
		month, err := domain.ParseMonth(months[i])
		if err != nil {
			return nil, &domain.FileError{Name: in.Name, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}

		k := key{year: year, month: int(month)}
		if seen[k] {
			return nil, &domain.FileError{Name: in.Name, Err: fmt.Errorf("duplicate climate record for %d-%02d", year, month)}
		}
		seen[k] = true

		anomaly := domain.ParseMeasurement(anomalies[i])
		if anomaly == nil {
			skipped++
			continue
		}

		phase, ok := domain.Phase(""), false
		if phases != nil {
			phase, ok = domain.ParsePhaseLabel(phases[i])
		}
		if !ok {
			phase = domain.DerivePhase(*anomaly, p.opts.Thresholds)
		}

		out = append(out, domain.EnsoMonth{
			Year:         year,
			Month:        month,
			AnomalyIndex: *anomaly,
			Phase:        phase,
		})
	}

	if skipped > 0 {
		p.logger.Warn("climate rows without anomaly skipped", "file", in.Name, "count", skipped)
	}
	return out, nil
}
