package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalField names one of the fixed set of columns the pipeline
// understands. Every incoming header is mapped onto one of these or ignored.
type CanonicalField string

const (
	FieldStationID    CanonicalField = "station_id"
	FieldStationName  CanonicalField = "station_name"
	FieldMunicipality CanonicalField = "municipality"
	FieldDepartment   CanonicalField = "department"
	FieldYear         CanonicalField = "year"
	FieldMonth        CanonicalField = "month"
	FieldDate         CanonicalField = "date"
	FieldLongitude    CanonicalField = "longitude"
	FieldLatitude     CanonicalField = "latitude"
	FieldAnomalyIndex CanonicalField = "anomaly_index"
	FieldPhase        CanonicalField = "phase"
	FieldPercentData  CanonicalField = "percent_data"
)

// fieldSynonyms is the declarative synonym table: canonical field → ordered
// accepted spellings, most specific first. Spellings are stored in
// normalized form (see NormalizeHeader) so lookups are a single pass.
// The anomaly column is canonically "anomalia_oni"; the other spellings seen
// across source variants (oni_indoceanico, oni) are synonyms for it.
var fieldSynonyms = map[CanonicalField][]string{
	FieldStationID:    {"codigo_estacion", "codigo", "station_id", "id_estacion", "estacion_id", "cod_estacion", "id"},
	FieldStationName:  {"nombre_estacion", "nombre", "station_name", "estacion", "name", "station"},
	FieldMunicipality: {"municipio", "municipality", "ciudad", "city"},
	FieldDepartment:   {"departamento", "department", "depto"},
	FieldYear:         {"ano", "anio", "year", "yr"},
	FieldMonth:        {"mes", "month"},
	FieldDate:         {"fecha", "date", "periodo", "fecha_mes"},
	FieldLongitude:    {"longitud", "longitude", "lon", "long", "x"},
	FieldLatitude:     {"latitud", "latitude", "lat", "y"},
	FieldAnomalyIndex: {"anomalia_oni", "oni_indoceanico", "oni", "anomalia", "anomaly", "anom"},
	FieldPhase:        {"enso", "fase", "phase", "evento", "event"},
	FieldPercentData:  {"porcentaje_datos", "porc_datos", "percent_data", "pct_data", "completitud"},
}

// substringable lists the fields whose synonyms may match as substrings of a
// header, for sources that decorate names ("Año hidrológico", "ONI index").
// Short tokens like "id" or "x" only ever match exactly; substring matching
// them would swallow unrelated columns.
var substringable = map[CanonicalField][]string{
	FieldYear:         {"ano", "anio", "year"},
	FieldMonth:        {"mes", "month"},
	FieldAnomalyIndex: {"anomalia_oni", "oni_indoceanico", "anomalia", "anomaly"},
	FieldStationName:  {"nombre_estacion", "station_name"},
	FieldStationID:    {"codigo_estacion", "cod_estacion", "station_id"},
	FieldLongitude:    {"longitud", "longitude"},
	FieldLatitude:     {"latitud", "latitude"},
	FieldPhase:        {"enso", "fase"},
	FieldPercentData:  {"porcentaje_datos", "percent_data"},
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks: "Año" → "Ano", "Medellín" → "Medellin".
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

var headerSeparators = regexp.MustCompile(`[\s./-]+`)

// NormalizeHeader lowers, trims, strips diacritics, and collapses separator
// runs to single underscores: " Código Estación " → "codigo_estacion".
// Idempotent: normalizing an already-normalized header is a no-op.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
	s = headerSeparators.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return s
}

// ResolveColumns maps raw headers onto canonical fields using, in order:
// exact match on the normalized header, then substring match against the
// synonyms that allow it. The first header to claim a field wins; later
// candidates for an already-resolved field are left unmapped.
func ResolveColumns(headers []string) map[CanonicalField]string {
	resolved := make(map[CanonicalField]string)

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	for field, names := range fieldSynonyms {
		for _, want := range names {
			for i, have := range normalized {
				if have == want {
					if _, taken := resolved[field]; !taken {
						resolved[field] = headers[i]
					}
				}
			}
		}
	}

	for field, fragments := range substringable {
		if _, taken := resolved[field]; taken {
			continue
		}
		for _, frag := range fragments {
			for i, have := range normalized {
				if strings.Contains(have, frag) {
					resolved[field] = headers[i]
					break
				}
			}
			if _, taken := resolved[field]; taken {
				break
			}
		}
	}

	return resolved
}

// RequireColumns checks that every listed field resolved, returning a
// SchemaError naming the first missing one.
func RequireColumns(file string, resolved map[CanonicalField]string, required ...CanonicalField) error {
	for _, field := range required {
		if _, ok := resolved[field]; !ok {
			return &SchemaError{File: file, Field: field}
		}
	}
	return nil
}

var bracketedSuffix = regexp.MustCompile(`\s*[\[(][^\])]*[\])]\s*`)

// CleanStationName canonicalizes a station name for exact-match joins:
// case fold, strip diacritics, drop bracketed/parenthetical suffixes
// ("LA SELVA [26250040]" → "la selva"), collapse internal whitespace.
func CleanStationName(s string) string {
	s = bracketedSuffix.ReplaceAllString(s, " ")
	s = strings.ToLower(StripDiacritics(s))
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStationID trims a station identifier and, for purely numeric ids,
// drops leading zeros so "0026250040" and "26250040" compare equal.
func NormalizeStationID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isDigits(s) {
		trimmed := strings.TrimLeft(s, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ParseDecimal parses a numeric string accepting both dot and comma decimal
// separators: "1,2" → 1.2.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
