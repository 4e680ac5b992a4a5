package loader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

func buildZip(t *testing.T, members map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestExtractShapefile(t *testing.T) {
	t.Run("single shp with sidecars", func(t *testing.T) {
		archive := buildZip(t, map[string]string{
			"estaciones.shp": "shp-bytes",
			"estaciones.dbf": "dbf-bytes",
			"estaciones.shx": "shx-bytes",
			"estaciones.prj": "PROJCS[...]",
			"leeme.txt":      "ignored",
		})

		path, cleanup, err := ExtractShapefile("geom.zip", archive)
		defer cleanup()

		require.NoError(t, err)
		assert.Equal(t, ".shp", filepath.Ext(path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "shp-bytes", string(content))

		dbf, err := os.ReadFile(strings.TrimSuffix(path, ".shp") + ".dbf")
		require.NoError(t, err)
		assert.Equal(t, "dbf-bytes", string(dbf))
	})

	t.Run("nested member paths are flattened", func(t *testing.T) {
		archive := buildZip(t, map[string]string{
			"capas/red/estaciones.shp": "shp-bytes",
			"capas/red/estaciones.dbf": "dbf-bytes",
		})

		path, cleanup, err := ExtractShapefile("geom.zip", archive)
		defer cleanup()

		require.NoError(t, err)
		assert.Equal(t, "estaciones.shp", filepath.Base(path))
		_, err = os.Stat(filepath.Join(filepath.Dir(path), "estaciones.dbf"))
		assert.NoError(t, err)
	})

	t.Run("no shp member names the archive", func(t *testing.T) {
		archive := buildZip(t, map[string]string{"datos.csv": "a,b\n"})

		_, cleanup, err := ExtractShapefile("capas.zip", archive)
		defer cleanup()

		require.Error(t, err)
		var geomErr *domain.GeometryError
		require.ErrorAs(t, err, &geomErr)
		assert.Equal(t, "capas.zip", geomErr.Archive)
		assert.Contains(t, err.Error(), "no .shp member")
	})

	t.Run("multiple shp members refuse to guess", func(t *testing.T) {
		archive := buildZip(t, map[string]string{
			"a.shp": "x",
			"b.shp": "y",
		})

		_, cleanup, err := ExtractShapefile("geom.zip", archive)
		defer cleanup()

		var geomErr *domain.GeometryError
		require.ErrorAs(t, err, &geomErr)
		assert.Contains(t, geomErr.Reason, "multiple")
	})

	t.Run("macos resource fork entries ignored", func(t *testing.T) {
		archive := buildZip(t, map[string]string{
			"estaciones.shp":          "shp-bytes",
			"__MACOSX/estaciones.shp": "resource-fork",
		})

		path, cleanup, err := ExtractShapefile("geom.zip", archive)
		defer cleanup()

		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "shp-bytes", string(content))
	})

	t.Run("not a zip", func(t *testing.T) {
		_, cleanup, err := ExtractShapefile("geom.zip", strings.NewReader("plain text"))
		defer cleanup()

		var geomErr *domain.GeometryError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("cleanup removes the temp dir", func(t *testing.T) {
		archive := buildZip(t, map[string]string{"estaciones.shp": "x"})

		path, cleanup, err := ExtractShapefile("geom.zip", archive)
		require.NoError(t, err)

		cleanup()
		_, err = os.Stat(filepath.Dir(path))
		assert.True(t, os.IsNotExist(err))
	})
}
