package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accented spanish", " Código Estación ", "codigo_estacion"},
		{"already normalized", "codigo_estacion", "codigo_estacion"},
		{"mixed separators", "Anomalia-ONI / mes", "anomalia_oni_mes"},
		{"uppercase", "MUNICIPIO", "municipio"},
		{"year with tilde", "Año", "ano"},
		{"empty", "", ""},
		{"only separators", " - / ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeHeader(tt.input))
		})
	}
}

func TestNormalizeHeaderIdempotent(t *testing.T) {
	headers := []string{"Código Estación", "Año", "ONI_IndOceanico", "nombre  de estación", "LATITUD"}
	for _, h := range headers {
		once := NormalizeHeader(h)
		assert.Equal(t, once, NormalizeHeader(once), "header %q", h)
	}
}

func TestResolveColumns(t *testing.T) {
	t.Run("spanish registry headers", func(t *testing.T) {
		headers := []string{"Código", "Nombre", "Municipio", "Departamento", "Longitud", "Latitud", "Porcentaje datos"}
		resolved := ResolveColumns(headers)

		assert.Equal(t, "Código", resolved[FieldStationID])
		assert.Equal(t, "Nombre", resolved[FieldStationName])
		assert.Equal(t, "Municipio", resolved[FieldMunicipality])
		assert.Equal(t, "Departamento", resolved[FieldDepartment])
		assert.Equal(t, "Longitud", resolved[FieldLongitude])
		assert.Equal(t, "Latitud", resolved[FieldLatitude])
		assert.Equal(t, "Porcentaje datos", resolved[FieldPercentData])
	})

	t.Run("enso variant columns", func(t *testing.T) {
		headers := []string{"Year", "mes", "Anomalia_ONI", "ENSO"}
		resolved := ResolveColumns(headers)

		assert.Equal(t, "Year", resolved[FieldYear])
		assert.Equal(t, "mes", resolved[FieldMonth])
		assert.Equal(t, "Anomalia_ONI", resolved[FieldAnomalyIndex])
		assert.Equal(t, "ENSO", resolved[FieldPhase])
	})

	t.Run("oni synonym variants resolve to anomaly index", func(t *testing.T) {
		for _, h := range []string{"Anomalia_ONI", "ONI_IndOceanico", "ONI"} {
			resolved := ResolveColumns([]string{"Año", "mes", h})
			assert.Equal(t, h, resolved[FieldAnomalyIndex], "header %q", h)
		}
	})

	t.Run("substring match on decorated year", func(t *testing.T) {
		resolved := ResolveColumns([]string{"Año hidrológico", "mes"})
		assert.Equal(t, "Año hidrológico", resolved[FieldYear])
	})

	t.Run("unknown headers stay unmapped", func(t *testing.T) {
		resolved := ResolveColumns([]string{"foo", "bar"})
		assert.Empty(t, resolved)
	})
}

func TestRequireColumns(t *testing.T) {
	resolved := ResolveColumns([]string{"Código", "Nombre"})

	require.NoError(t, RequireColumns("est.csv", resolved, FieldStationID, FieldStationName))

	err := RequireColumns("est.csv", resolved, FieldStationID, FieldLatitude)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, FieldLatitude, schemaErr.Field)
	assert.Contains(t, err.Error(), "missing required column: latitude")
	assert.Contains(t, err.Error(), "est.csv")
}

func TestCleanStationName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bracketed code suffix", "LA SELVA [26250040]", "la selva"},
		{"parenthetical suffix", "Aeropuerto Olaya Herrera (AUT)", "aeropuerto olaya herrera"},
		{"diacritics and case", "  Medellín   Centro ", "medellin centro"},
		{"plain", "santa fe", "santa fe"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanStationName(tt.input))
		})
	}
}

func TestNormalizeStationID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"leading zeros dropped", "0026250040", "26250040"},
		{"plain numeric", "26250040", "26250040"},
		{"single digit", "1", "1"},
		{"all zeros", "000", "0"},
		{"alphanumeric untouched", "EST-01", "EST-01"},
		{"whitespace trimmed", " 42 ", "42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStationID(tt.input))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	t.Run("comma separator", func(t *testing.T) {
		v, err := ParseDecimal("1,2")
		require.NoError(t, err)
		assert.InDelta(t, 1.2, v, 1e-9)
	})

	t.Run("dot separator", func(t *testing.T) {
		v, err := ParseDecimal("-0.5")
		require.NoError(t, err)
		assert.InDelta(t, -0.5, v, 1e-9)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDecimal("n.d")
		assert.Error(t, err)
	})
}
