// Package reshape converts the wide station-by-month precipitation table
// into long (station, year, month, value) observations and back.
package reshape

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// ErrNoStationColumns marks a wide table in which no header matches the
// structural station-identifier pattern. This is a configuration error, not
// an empty result: a precipitation file without station columns is unusable.
var ErrNoStationColumns = errors.New("no station-identifier columns in wide table")

// rowKeyFormats are the accepted spellings of the monthly row key.
var rowKeyFormats = []string{"2006-01", "2006-01-02", "2006/01", "01/2006", "2006-1"}

// Melt converts a wide precipitation DataFrame into one observation per
// (row-key, station) cell. Station columns are recognized structurally: a
// header consisting solely of ASCII digits is a gauge code. The roster is
// presumed larger than any one file, so there is no allowlist.
//
// Sentinel cells become nil values; the returned slice keeps them so callers
// can reason about coverage ([DropNull] filters them out). Duplicate
// (station, year, month) keys are malformed input.
func Melt(df dataframe.DataFrame) ([]domain.PrecipitationObservation, error) {
	headers := df.Names()

	stationCols := make([]string, 0, len(headers))
	for _, h := range headers {
		if isStationHeader(h) {
			stationCols = append(stationCols, h)
		}
	}
	if len(stationCols) == 0 {
		return nil, ErrNoStationColumns
	}

	dateCol, err := rowKeyColumn(headers, stationCols)
	if err != nil {
		return nil, err
	}

	dates := df.Col(dateCol).Records()
	columns := make(map[string][]string, len(stationCols))
	for _, c := range stationCols {
		columns[c] = df.Col(c).Records()
	}

	type key struct {
		station string
		year    int
		month   time.Month
	}
	seen := make(map[key]bool, len(dates)*len(stationCols))

	obs := make([]domain.PrecipitationObservation, 0, len(dates)*len(stationCols))
	for i, d := range dates {
		year, month, err := parseRowKey(d)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		for _, c := range stationCols {
			id := domain.NormalizeStationID(c)
			k := key{station: id, year: year, month: month}
			if seen[k] {
				return nil, fmt.Errorf("duplicate observation for station %s at %d-%02d", id, year, month)
			}
			seen[k] = true

			obs = append(obs, domain.PrecipitationObservation{
				StationID: id,
				Year:      year,
				Month:     month,
				ValueMM:   domain.ParseMeasurement(columns[c][i]),
			})
		}
	}
	return obs, nil
}

// DropNull filters out no-data observations. Aggregations must run on the
// filtered slice so sentinels are skipped, never summed as zero.
func DropNull(obs []domain.PrecipitationObservation) []domain.PrecipitationObservation {
	out := make([]domain.PrecipitationObservation, 0, len(obs))
	for _, o := range obs {
		if o.ValueMM != nil {
			out = append(out, o)
		}
	}
	return out
}

// Pivot rebuilds a wide DataFrame from long observations, one row per
// (year, month) and one column per station, with empty cells where values
// are null. Inverse of [Melt] up to sentinel spelling.
func Pivot(obs []domain.PrecipitationObservation) dataframe.DataFrame {
	stationSet := map[string]bool{}
	rowSet := map[string]bool{}
	cells := map[string]map[string]string{}

	for _, o := range obs {
		rk := fmt.Sprintf("%04d-%02d", o.Year, int(o.Month))
		stationSet[o.StationID] = true
		rowSet[rk] = true
		if cells[rk] == nil {
			cells[rk] = map[string]string{}
		}
		if o.ValueMM != nil {
			cells[rk][o.StationID] = strconv.FormatFloat(*o.ValueMM, 'f', -1, 64)
		}
	}

	stations := sortedKeys(stationSet)
	rowKeys := sortedKeys(rowSet)

	records := make([][]string, 0, len(rowKeys)+1)
	records = append(records, append([]string{"fecha"}, stations...))
	for _, rk := range rowKeys {
		row := make([]string, 0, len(stations)+1)
		row = append(row, rk)
		for _, st := range stations {
			row = append(row, cells[rk][st])
		}
		records = append(records, row)
	}

	return dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isStationHeader reports whether a header is structurally a gauge code:
// nothing but ASCII digits after trimming.
func isStationHeader(h string) bool {
	h = strings.TrimSpace(h)
	if h == "" {
		return false
	}
	for _, r := range h {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// rowKeyColumn picks the date column: the resolved canonical date header if
// present, otherwise the single non-station column left over.
func rowKeyColumn(headers, stationCols []string) (string, error) {
	resolved := domain.ResolveColumns(headers)
	if c, ok := resolved[domain.FieldDate]; ok {
		return c, nil
	}

	stations := make(map[string]bool, len(stationCols))
	for _, c := range stationCols {
		stations[c] = true
	}
	var rest []string
	for _, h := range headers {
		if !stations[h] {
			rest = append(rest, h)
		}
	}
	if len(rest) == 1 {
		return rest[0], nil
	}
	return "", &domain.SchemaError{Field: domain.FieldDate}
}

// parseRowKey parses a monthly row key in any accepted format.
func parseRowKey(s string) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range rowKeyFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), t.Month(), nil
		}
	}
	return 0, 0, fmt.Errorf("unparseable row key %q", s)
}
