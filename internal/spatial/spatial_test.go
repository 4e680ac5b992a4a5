package spatial

import (
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// writePointShapefile creates a point shapefile with CODIGO/NOMBRE attributes.
func writePointShapefile(t *testing.T, dir string, points []shp.Point, codes, names []string) string {
	t.Helper()
	path := filepath.Join(dir, "estaciones.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("CODIGO", 20),
		shp.StringField("NOMBRE", 40),
	}))

	for i := range points {
		w.Write(&points[i])
		require.NoError(t, w.WriteAttribute(i, 0, codes[i]))
		require.NoError(t, w.WriteAttribute(i, 1, names[i]))
	}
	w.Close()
	return path
}

func TestLoadShapefile(t *testing.T) {
	t.Run("projected source reprojects to degrees", func(t *testing.T) {
		dir := t.TempDir()
		// Place one point at the projection's natural origin so the expected
		// geographic coordinates are exact.
		path := writePointShapefile(t, dir,
			[]shp.Point{{X: 5000000.0, Y: 2000000.0}},
			[]string{"26250040"}, []string{"LA SELVA"},
		)

		geoms, err := LoadShapefile(path, Options{DefaultSourceEPSG: EPSGOrigenNacional})
		require.NoError(t, err)
		require.Len(t, geoms, 1)

		assert.InDelta(t, -73.0, geoms[0].Longitude, 1e-6)
		assert.InDelta(t, 4.0, geoms[0].Latitude, 1e-6)
		assert.Equal(t, "EPSG:9377", geoms[0].SourceCRS)
		assert.Equal(t, "26250040", geoms[0].StationID)
		assert.Equal(t, "LA SELVA", geoms[0].SourceName)
	})

	t.Run("declared geographic crs is never overwritten", func(t *testing.T) {
		dir := t.TempDir()
		path := writePointShapefile(t, dir,
			[]shp.Point{{X: -75.5, Y: 6.5}},
			[]string{"2"}, []string{"B"},
		)
		prj := `GEOGCS["MAGNA-SIRGAS",DATUM["D_MAGNA",SPHEROID["GRS_1980",6378137,298.257222101]]]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "estaciones.prj"), []byte(prj), 0o644))

		geoms, err := LoadShapefile(path, Options{DefaultSourceEPSG: EPSGOrigenNacional})
		require.NoError(t, err)
		require.Len(t, geoms, 1)

		assert.InDelta(t, -75.5, geoms[0].Longitude, 1e-9)
		assert.InDelta(t, 6.5, geoms[0].Latitude, 1e-9)
		assert.Equal(t, "EPSG:4326", geoms[0].SourceCRS)
	})

	t.Run("unsupported source crs", func(t *testing.T) {
		dir := t.TempDir()
		path := writePointShapefile(t, dir,
			[]shp.Point{{X: 1, Y: 2}}, []string{"1"}, []string{"A"},
		)

		_, err := LoadShapefile(path, Options{DefaultSourceEPSG: 3116})
		var geomErr *domain.GeometryError
		require.ErrorAs(t, err, &geomErr)
		assert.Contains(t, geomErr.Reason, "3116")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadShapefile(filepath.Join(t.TempDir(), "nope.shp"), Options{})
		var geomErr *domain.GeometryError
		require.ErrorAs(t, err, &geomErr)
	})
}

func TestMatchStations(t *testing.T) {
	stations := []domain.StationRecord{
		{ID: "1", Name: "La Selva", Longitude: -75.0, Latitude: 6.0},
		{ID: "2", Name: "Río Claro", Longitude: -75.5, Latitude: 6.5},
	}

	t.Run("id match wins", func(t *testing.T) {
		geoms := []domain.StationGeometry{{StationID: "001", SourceName: "whatever"}}
		linked, misses := MatchStations(geoms, stations)

		assert.Equal(t, 0, misses)
		assert.Equal(t, "1", linked[0].StationID)
	})

	t.Run("name match after cleanup", func(t *testing.T) {
		geoms := []domain.StationGeometry{{SourceName: "RIO CLARO [26250040]"}}
		linked, misses := MatchStations(geoms, stations)

		assert.Equal(t, 0, misses)
		assert.Equal(t, "2", linked[0].StationID)
	})

	t.Run("no fuzzy matching", func(t *testing.T) {
		geoms := []domain.StationGeometry{{SourceName: "Rio Clarito"}}
		linked, misses := MatchStations(geoms, stations)

		assert.Equal(t, 1, misses)
		assert.Empty(t, linked[0].StationID)
	})
}
